package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Sweep runs one reconciliation pass over unanchored linkages.
func (r *Runner) Sweep(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	batchSize := int(cmd.Int("batch"))
	result, err := r.sweeper.Sweep(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader("Sweep Complete")
	r.writePlain("Processed: %d\n", result.Processed)
	r.writePlain("Linked: %d\n", result.Linked)
	r.writePlain("Skipped: %d\n", result.Skipped)
	return nil
}

func sweepCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Re-match unanchored linkages against the local library",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Maximum linkages to process in this pass",
			},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
		},
		Action: r.Sweep,
	}
}
