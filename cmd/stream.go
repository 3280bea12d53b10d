package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jfmyers9/playmusic/internal/streamer"
	"github.com/spf13/cobra"
)

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream <track-id>...",
	Short: "Resolve signed stream URLs for tracks",
	Long: `Resolve a signed, time-limited stream URL for each track id.

Ids starting with "T" are All Access catalog tracks; anything else is a
library track. Lookups run concurrently (see concurrency in the config)
and live URLs are served from the local cache.

Each line of output is the track id followed by its URL or the error.
The command fails if any track could not be resolved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().IntP("width", "w", 0, "Track id column width (0=config default)")
	streamCmd.Flags().Bool("no-cache", false, "Skip the stream URL cache")
	streamCmd.Flags().BoolP("quiet", "q", false, "Print only URLs")
}

func runStream(cmd *cobra.Command, args []string) error {
	noCache, _ := cmd.Flags().GetBool("no-cache")

	return withApp(cmd, !noCache, func(ctx context.Context, a *app) error {
		batch, err := a.client.Resolve(ctx, args)
		if err != nil {
			return err
		}

		width, _ := cmd.Flags().GetInt("width")
		if width == 0 {
			width = a.cfg.OutputWidth
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		writeResults(cmd.OutOrStdout(), batch, width, quiet)

		if failed := batch.Failed(); failed > 0 {
			return fmt.Errorf("%d of %d tracks could not be resolved", failed, len(batch.Results))
		}
		return nil
	})
}

// writeResults prints one line per track
func writeResults(w io.Writer, batch *streamer.Batch, width int, quiet bool) {
	for _, r := range batch.Results {
		if quiet {
			if r.Err == nil {
				fmt.Fprintln(w, r.URL)
			}
			continue
		}

		id := padToWidth(r.TrackID, width)
		if r.Err != nil {
			hint := ""
			if streamer.IsTemporary(r.Err) {
				hint = " (temporary, try again)"
			}
			fmt.Fprintf(w, "%s  error: %v%s\n", id, r.Err, hint)
			continue
		}

		source := "fresh"
		if r.Cached {
			source = "cached"
		}
		expires := ""
		if !r.ExpiresAt.IsZero() {
			expires = " expires " + r.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s  %s  [%s%s]\n", id, r.URL, source, expires)
	}
}
