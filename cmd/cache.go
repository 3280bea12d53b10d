package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jfmyers9/playmusic/internal/config"
	"github.com/jfmyers9/playmusic/internal/streamer"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the stream URL cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached stream URLs",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired stream URLs",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheListCmd.Flags().String("account", "", "Only list entries for this account")
	cacheListCmd.Flags().IntP("width", "w", 28, "Track id column width")
}

func openCache() (*streamer.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cache, err := streamer.NewCache(cfg.Cache.Path, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream cache: %w", err)
	}
	return cache, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	account, _ := cmd.Flags().GetString("account")
	width, _ := cmd.Flags().GetInt("width")

	entries, err := cache.List(cmd.Context(), account)
	if err != nil {
		return err
	}

	writeEntries(cmd.OutOrStdout(), entries, width, time.Now())
	return nil
}

// writeEntries prints one line per cache entry
func writeEntries(w io.Writer, entries []streamer.Entry, width int, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cached streams")
		return
	}

	for _, e := range entries {
		status := "expires " + e.ExpiresAt.Format(time.RFC3339)
		if e.Expired(now) {
			status = "expired"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			padToWidth(e.TrackID, width),
			padToWidth(e.Account, 24),
			padToWidth(status, 33),
			e.URL)
	}
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := cmd.Context()

	deleted, err := cache.Prune(ctx)
	if err != nil {
		return err
	}

	remaining, err := cache.Count(ctx, true)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired stream(s), %d remaining\n", deleted, remaining)
	return nil
}
