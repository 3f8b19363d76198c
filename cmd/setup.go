package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/visheshvs/nexportify/internal/session"
	"github.com/visheshvs/nexportify/internal/shared"
)

// Setup creates the configuration file from the template if it is missing and
// initializes the session store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing session store", "path", config.Session.Path)

	store, err := session.Open(config.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Session store: %s\n", config.Session.Path)
	if config.Credentials.Spotify.ClientID == "" {
		r.writePlainln("⚠ No client ID set. Add one under [credentials.spotify] or set SPOTIFY_ID.")
	}
	return nil
}
