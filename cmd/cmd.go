// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the configuration file and session store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file and session store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the login session lifecycle.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify (PKCE) and store the session",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a valid session is stored",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the user's playlists including Liked Songs.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List playlists (Liked Songs first)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of playlists to show",
			},
		},
		Action: r.Playlists,
	}
}

// exportCommand exports playlists to CSV documents.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist ID to export",
			},
			&cli.BoolFlag{
				Name:  "liked",
				Usage: "Export Liked Songs",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every playlist",
			},
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "Pick playlists interactively",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format: csv or report",
				Value: "csv",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers (bulk only)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Playlist aggregations started per second (bulk only)",
			},
		},
		Action: r.Export,
	}
}

// reportCommand renders an HTML report from a playlist or an exported CSV.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate an interactive HTML report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist ID to report on",
			},
			&cli.StringFlag{
				Name:  "from-csv",
				Usage: "Build the report from an exported CSV file",
			},
			&cli.BoolFlag{
				Name:  "simple",
				Usage: "Omit audio-feature sections",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.Report,
	}
}
