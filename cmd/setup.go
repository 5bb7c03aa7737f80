package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/swipe/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config file named by --config.
//
// With --from-env the file is written from the loaded config, so credentials
// found in the environment or .env file are persisted.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		return fmt.Errorf("%w: --config path is empty", shared.ErrMissingArgument)
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
	}

	if cmd.Bool("from-env") {
		if err := shared.SaveConfig(path, r.config); err != nil {
			return err
		}
	} else {
		if exists {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to replace config file: %w", err)
			}
		}
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
	}

	r.logger.Info("config file written", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	if err := r.config.Validate(); err != nil {
		r.writePlain("⚠ %v\n", err)
		r.writePlain("Edit %s or set SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET before running 'swipe auth login'.\n", path)
	}
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}
