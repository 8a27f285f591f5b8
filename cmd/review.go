package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rowanvale/tracklink/internal/shared"
	"github.com/rowanvale/tracklink/internal/ui"
	"github.com/urfave/cli/v3"
)

// Review launches the interactive terminal UI for settling low-confidence
// linkages.
func (r *Runner) Review(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	cutoff := cmd.Float("cutoff")
	if cutoff <= 0 || cutoff > 1 {
		return fmt.Errorf("%w: cutoff must be within (0, 1]", shared.ErrInvalidFlag)
	}

	model := ui.NewModel(ctx, r.links, r.arbitrator, cutoff)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func reviewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Interactively review low-confidence linkages",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "cutoff",
				Usage: "Confidence below which linkages appear for review",
				Value: 0.8,
			},
		},
		Action: r.Review,
	}
}
