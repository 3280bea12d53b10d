package main

import "github.com/jfmyers9/playmusic/cmd"

func main() {
	cmd.Execute()
}
