package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jfmyers9/playmusic/pkg/playmusic"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials and show the account's streaming setup",
	Long: `Log in to Google Play Music and print what the account can stream.

This command will:
1. Read the email and password from the environment, --email or a prompt
2. Exchange them for an auth token
3. Fetch the account settings and pick the device used to sign stream requests

Accounts protected by two-factor authentication need an app password.
Nothing is saved; every command logs in again.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		return printAccount(cmd.OutOrStdout(), a.client.Session())
	})
}

// printAccount writes a summary of the session
func printAccount(w io.Writer, session *playmusic.Session) error {
	var settings struct {
		UploadDevice []playmusic.Device `json:"uploadDevice"`
	}
	if len(session.Settings) > 0 {
		if err := json.Unmarshal(session.Settings, &settings); err != nil {
			return fmt.Errorf("failed to decode account settings: %w", err)
		}
	}

	fmt.Fprintln(w, "✓ Login successful")
	fmt.Fprintf(w, "All Access: %s\n", yesNo(session.AllAccess))

	if session.HasDevice() {
		fmt.Fprintf(w, "Device ID:  %s\n", session.DeviceID)
	} else {
		fmt.Fprintln(w, "Device ID:  none (register a phone or tablet to stream)")
	}

	if len(settings.UploadDevice) > 0 {
		fmt.Fprintln(w, "\nRegistered devices:")
		for _, d := range settings.UploadDevice {
			fmt.Fprintf(w, "  %s  %s  %s\n",
				padToWidth(deviceTypeName(d.DeviceType), 7),
				padToWidth(d.ID, 20),
				d.Name)
		}
	}

	return nil
}

func deviceTypeName(t int) string {
	switch t {
	case playmusic.DeviceTypePhone:
		return "phone"
	case playmusic.DeviceTypeTablet:
		return "tablet"
	default:
		return "other"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
