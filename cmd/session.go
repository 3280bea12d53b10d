package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jfmyers9/playmusic/internal/config"
	"github.com/jfmyers9/playmusic/internal/streamer"
	"github.com/jfmyers9/playmusic/pkg/playmusic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var emailFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&emailFlag, "email", "", "Account email (overrides PLAYMUSIC_ACCOUNT_EMAIL)")
}

// app bundles what a command needs to talk to the service
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *streamer.Client
	cache  *streamer.Cache
}

// newApp loads configuration and builds a client. The stream cache is
// opened only when useCache is set and caching is enabled.
func newApp(useCache bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(logFile, logLevel)

	a := &app{cfg: cfg, logger: logger}

	if useCache && cfg.Cache.Enabled {
		cache, err := streamer.NewCache(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open stream cache: %w", err)
		}
		a.cache = cache
		logger.Debug().Str("path", cfg.Cache.Path).Msg("Using stream cache")
	}

	client, err := streamer.New(streamer.Options{
		Endpoints: playmusic.Endpoints{
			Auth:   cfg.Endpoints.Auth,
			Web:    cfg.Endpoints.Web,
			Mobile: cfg.Endpoints.Mobile,
			API:    cfg.Endpoints.API,
		},
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
		Cache:       a.cache,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client

	return a, nil
}

// Close releases the stream cache
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close stream cache")
		}
	}
}

// login resolves credentials and logs in
func (a *app) login(ctx context.Context) (*playmusic.Session, error) {
	email, password, err := credentials(a.cfg.Account, os.Stdin, os.Stderr)
	if err != nil {
		return nil, err
	}

	session, err := a.client.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, playmusic.ErrAuthFailure) {
			return nil, fmt.Errorf("%w (check the email and app password)", err)
		}
		return nil, err
	}
	return session, nil
}

// credentials returns the email and password to log in with. The --email
// flag wins over configuration; anything still missing is prompted for
// when stdin is a terminal.
func credentials(account config.AccountConfig, in *os.File, out io.Writer) (string, string, error) {
	email := strings.TrimSpace(account.Email)
	if emailFlag != "" {
		email = strings.TrimSpace(emailFlag)
	}
	password := account.Password

	interactive := term.IsTerminal(int(in.Fd()))

	if email == "" && interactive {
		fmt.Fprint(out, "Email: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	if password == "" && interactive {
		fmt.Fprint(out, "Password: ")
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	if email == "" || password == "" {
		return "", "", fmt.Errorf("%w: set PLAYMUSIC_ACCOUNT_EMAIL and PLAYMUSIC_ACCOUNT_PASSWORD or run in a terminal", playmusic.ErrMissingCredentials)
	}

	return email, password, nil
}

// withApp runs fn with a logged-in app
func withApp(cmd *cobra.Command, useCache bool, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(useCache)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if _, err := a.login(ctx); err != nil {
		return err
	}

	return fn(ctx, a)
}
