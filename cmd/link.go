package main

import (
	"context"
	"fmt"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
	"github.com/urfave/cli/v3"
)

// LinkCreate records a linkage claim through the arbitrator.
func (r *Runner) LinkCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	tuple := models.LinkageTuple{}
	if local := cmd.String("local"); local != "" {
		tuple.LocalTrackID = &local
	}
	if tidal := cmd.String("tidal"); tidal != "" {
		tuple.TidalTrackID = &tidal
	}
	if youtube := cmd.String("youtube"); youtube != "" {
		tuple.YouTubeTrackID = &youtube
	}

	source := models.LinkSource(cmd.String("source"))
	confidence := cmd.Float("confidence")
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence must be within 0..1", shared.ErrInvalidFlag)
	}

	linkage, err := r.arbitrator.CreateLinkage(ctx, tuple, confidence, source)
	if err != nil {
		return fmt.Errorf("failed to create linkage: %w", err)
	}

	r.writePlain("✓ Linkage #%d holds the tuple (source %s, confidence %.2f)\n", linkage.ID, linkage.Source, linkage.Confidence)
	return nil
}

// LinkList prints the preferred linkages for a track or an album.
func (r *Runner) LinkList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	track := cmd.String("track")
	album := cmd.String("album")

	var linkages []models.Linkage
	switch {
	case track != "":
		linkages = r.arbitrator.FindForLocalTrack(ctx, track)
	case album != "":
		linkages = r.arbitrator.FindForAlbum(ctx, album)
	default:
		return fmt.Errorf("%w: either --track or --album must be provided", shared.ErrMissingArgument)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"linkages": linkages, "count": len(linkages)}, true)
	}

	if len(linkages) == 0 {
		r.writePlain("No active linkages found\n")
		return nil
	}

	for _, l := range linkages {
		ref := ""
		if l.TidalTrackID != nil {
			ref = fmt.Sprintf("tidal:%s", *l.TidalTrackID)
		}
		if l.YouTubeTrackID != nil {
			if ref != "" {
				ref += " "
			}
			ref += fmt.Sprintf("youtube:%s", *l.YouTubeTrackID)
		}
		r.writePlain("#%d  %s  %.2f  %s\n", l.ID, l.Source, l.Confidence, ref)
	}
	return nil
}

func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Create and inspect track linkages",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Record a linkage claim",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "local", Usage: "Local track id"},
					&cli.StringFlag{Name: "tidal", Usage: "Tidal track row id"},
					&cli.StringFlag{Name: "youtube", Usage: "YouTube track row id"},
					&cli.FloatFlag{Name: "confidence", Usage: "Claim confidence (0..1)", Value: 1},
					&cli.StringFlag{Name: "source", Usage: "Claim source (manual, isrc, import-match, gap-fill)", Value: string(models.SourceManual)},
				},
				Action: r.LinkCreate,
			},
			{
				Name:  "list",
				Usage: "List preferred linkages for a track or album",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "track", Usage: "Local track id"},
					&cli.StringFlag{Name: "album", Usage: "Album title"},
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
				},
				Action: r.LinkList,
			},
		},
	}
}
