package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/swipe/internal/formatter"
	"github.com/desertthunder/swipe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Profile prints the signed-in Spotify account.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.discovery(ctx); err != nil {
		return err
	}

	profile, err := r.spotify.Profile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlainHeader(profile.DisplayName)
	r.writePlain("ID:          %s\n", profile.ID)
	if profile.Email != "" {
		r.writePlain("Email:       %s\n", profile.Email)
	}
	r.writePlain("Country:     %s\n", profile.Country)
	r.writePlain("Plan:        %s\n", profile.Product)
	r.writePlain("Saved songs: %d\n", profile.SavedTracks)
	return nil
}

// Liked lists every saved track, or writes them to --output.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	if err := r.discovery(ctx); err != nil {
		return err
	}

	r.logger.Info("fetching saved tracks")
	saved, err := r.fetcher.FetchSavedTracks(ctx)
	if err != nil {
		return err
	}

	listing := formatter.NewListing("Liked Songs", saved)
	return r.render(listing, cmd.String("format"), cmd.IsSet("format"), cmd.String("output"))
}

// Discover runs one reconciliation pass and prints the resulting queue.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	if err := r.discovery(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()

	queue, err := r.reconciler.Reconcile(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	listing := &formatter.Listing{Title: "Discover", Tracks: queue.Tracks()}
	if cmd.Bool("json") {
		return r.writeJSON(listing, true)
	}
	return r.render(listing, cmd.String("format"), true, "")
}

// render writes listing to stdout, or to path when set. Without an explicit
// format a file's extension decides.
func (r *Runner) render(listing *formatter.Listing, format string, explicit bool, path string) error {
	var f formatter.Format
	if path == "" || explicit {
		var err error
		if f, err = formatter.ParseFormat(format); err != nil {
			return err
		}
	}

	if path != "" {
		if err := formatter.WriteExport(path, f, listing); err != nil {
			return err
		}
		r.logger.Infof("exported %d tracks to %v", len(listing.Tracks), path)
		return r.writePlain("✓ %d tracks written to %s\n", len(listing.Tracks), path)
	}

	data, err := formatter.Render(f, listing)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
