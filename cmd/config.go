package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/playmusic/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the current settings",
	Long: `Write ~/.config/playmusic/config.yaml with the current settings
(defaults merged with any environment overrides).

Credentials are never written to the file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := filepath.Join(config.GetConfigDir(), "config.yaml")

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.SaveTo(configFile); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", configFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}
