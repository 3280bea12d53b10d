package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the library and catalog",
	Long: `Search the account's library and the All Access catalog.

The raw JSON response is printed. Catalog results are only returned for
All Access subscribers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List thumbs-up tracks",
	Long:  `Print the account's thumbs-up tracks as a JSON array.`,
	Args:  cobra.NoArgs,
	RunE:  runFavorites,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(favoritesCmd)

	searchCmd.Flags().IntP("max-results", "n", 0, "Maximum number of results (default 20)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	query := strings.Join(args, " ")

	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		result, err := a.client.Search(ctx, query, maxResults)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	})
}

func runFavorites(cmd *cobra.Command, args []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		tracks, err := a.client.Favorites(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), tracks)
	})
}

// writeJSON pretty-prints raw JSON
func writeJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
