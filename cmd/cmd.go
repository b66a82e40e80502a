// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/moodring/internal/formatter"
	"github.com/urfave/cli/v3"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Primary identity user ID",
		Required: true,
	}
}

// serveCommand runs the web client
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web client",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the landing page in the default browser",
			},
		},
		Action: r.Serve,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the bundled template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied migrations",
				Action: r.MigrationStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the latest migration",
				Action: r.Rollback,
			},
		},
	}
}

// linkCommand inspects and manages linked Spotify credentials
func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Inspect and manage linked Spotify credentials",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the credential state for a user",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LinkStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the stored refresh token for a new access token",
				Flags:  []cli.Flag{userFlag()},
				Action: r.LinkRefresh,
			},
			{
				Name:   "unlink",
				Usage:  "Soft-delete the linked credential",
				Flags:  []cli.Flag{userFlag()},
				Action: r.LinkUnlink,
			},
		},
	}
}

// recentCommand exports recently played tracks
func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Show or export recently played tracks",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file (markdown exports write a directory with cover art)",
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "Read from Spotify with the stored access token instead of the backend",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum tracks when reading from Spotify",
				Value: 20,
			},
		},
		Action: r.Recent,
	}
}

// collectionsCommand lists curated mood collections
func collectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "List curated mood collections",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Collections,
	}
}

// moodCommand launches the interactive mood picker
func moodCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mood",
		Usage: "Pick a mood and browse recommendations in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Personalize recommendations for this user",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs here while the UI is running",
				Value: "./tmp/moodring-tui.log",
			},
		},
		Action: r.Mood,
	}
}
