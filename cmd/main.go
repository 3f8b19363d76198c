package main

import (
	"context"
	"errors"
	"os"

	"github.com/visheshvs/nexportify/internal/session"
	"github.com/visheshvs/nexportify/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var store *session.Store
	if s, err := session.Open(config.Session.Path); err == nil {
		store = s
		defer store.Close()
	} else {
		logger.Warnf("session store unavailable: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "nexportify",
		Usage:    "Export Spotify playlists to CSV and HTML reports",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired) {
			logger.Error("not authenticated, run: nexportify auth login")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
