// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
					&cli.BoolFlag{
						Name:  "from-env",
						Usage: "Fill provider credentials from the environment and .env file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles provider authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize a provider in the browser (spotify or deezer)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider", Value: "spotify"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Check whether each provider is authenticated",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Remove stored credentials for one provider, or all when omitted",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider"},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// profileCommand shows the signed-in Spotify account
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the signed-in Spotify account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Profile,
	}
}

// likedCommand lists or exports saved tracks
func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "List every track saved in your Spotify library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, markdown or txt",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout; the format follows the extension unless --format is set",
			},
		},
		Action: r.Liked,
	}
}

// discoverCommand runs one reconciliation pass without the TUI
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Build one batch of playable recommendations and print it",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, markdown or txt",
				Value:   "txt",
			},
		},
		Action: r.Discover,
	}
}

// swipeCommand returns the top-level TUI command.
func swipeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "swipe",
		Aliases: []string{"tui", "ui"},
		Usage:   "Swipe through previews: like to save, skip to move on",
		Action:  r.Swipe,
	}
}
