package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/swipe/internal/player"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/desertthunder/swipe/internal/tasks"
	"github.com/desertthunder/swipe/internal/ui"
	"github.com/urfave/cli/v3"
)

// Swipe launches the interactive swipe deck.
func (r *Runner) Swipe(ctx context.Context, cmd *cli.Command) error {
	// Services capture the logger when built, so redirect before discovery.
	if path := r.config.Log.File; path != "" {
		stderr := r.logger
		fileLogger, f, err := shared.NewFileLogger(path)
		if err != nil {
			return err
		}
		shared.SetLogLevel(fileLogger, stderr.GetLevel())
		r.SetLogger(fileLogger)
		defer func() {
			f.Close()
			r.SetLogger(stderr)
		}()
	}

	if err := r.discovery(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	queue := tasks.NewSwipeQueue(r.reconciler, r.spotify, tasks.SwipeQueueOpts{
		MaxEmptyRefills: r.config.Discovery.MaxEmptyRefills,
		Progress:        progress,
		Logger:          r.logger,
	})

	previews := player.New(player.Options{Client: r.httpClient, Logger: r.logger})
	defer previews.Close()

	model := ui.NewModel(ctx, queue, previews, progress)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	liked := model.Liked()
	if len(liked) == 0 {
		return nil
	}
	r.writePlainHeader(fmt.Sprintf("Liked this session (%d)", len(liked)))
	for _, t := range liked {
		r.writePlain("♥ %s - %s\n", t.Title, t.Artist)
	}
	return nil
}
