package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rowanvale/tracklink/internal/formatter"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
	"github.com/urfave/cli/v3"
)

// importFile is the accepted input document: either a bare metadata array or
// an object with a name and a tracks array.
type importFile struct {
	Name   string            `json:"name"`
	Tracks []models.Metadata `json:"tracks"`
}

// readImportFile parses a playlist import document.
func readImportFile(path string) (*importFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var doc importFile
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Tracks) > 0 {
		return &doc, nil
	}

	var tracks []models.Metadata
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("%w: input must be a metadata array or a {name, tracks} object: %v", shared.ErrInvalidInput, err)
	}
	return &importFile{Tracks: tracks}, nil
}

// Resolve runs a playlist import file through the resolution pipeline and
// records linkages for every remote match.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	inputPath := cmd.String("input")
	doc, err := readImportFile(inputPath)
	if err != nil {
		return err
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(inputPath, ".json")
	}

	r.logger.Info("resolving batch", "input", inputPath, "tracks", len(doc.Tracks))

	results := r.pipeline.ResolveBatch(ctx, doc.Tracks)

	linked := 0
	for i, result := range results {
		tuple, source, ok := r.linkageFor(ctx, doc.Tracks[i], result)
		if !ok {
			continue
		}
		if _, err := r.arbitrator.CreateLinkage(ctx, tuple, float64(result.Confidence)/100, source); err != nil {
			return fmt.Errorf("failed to record linkage for input %d: %w", i, err)
		}
		linked++
	}

	report := &formatter.ResolutionReport{Name: doc.Name, Inputs: doc.Tracks, Results: results}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Resolution Complete")
	r.writePlain("Inputs: %d\n", len(results))
	r.writePlain("Resolved: %d (local %d, tidal %d, youtube %d)\n",
		report.Resolved(), countSource(results, models.ResolvedLocal),
		countSource(results, models.ResolvedTidal), countSource(results, models.ResolvedYouTube))
	r.writePlain("Duplicates: %d\n", report.Duplicates())
	r.writePlain("Linkages recorded: %d\n", linked)

	unresolved := 0
	for _, result := range results {
		if !result.Resolved() && !result.Duplicate {
			unresolved++
		}
	}
	if unresolved > 0 {
		r.writePlain("\nUnresolved:\n")
		for i, result := range results {
			if result.Resolved() || result.Duplicate {
				continue
			}
			r.writePlain("  %d. %s - %s\n", i+1, doc.Tracks[i].Artist, doc.Tracks[i].Title)
		}
	}

	if format := cmd.String("export"); format != "" {
		return r.exportReport(report, format, cmd.String("out"))
	}
	return nil
}

// linkageFor maps one resolved entry to the linkage it should assert.
//
// Local resolutions record nothing: they carry no provider reference. Remote
// resolutions link the cached catalog row, with the isrc source when the
// match was corroborated by an identifier.
func (r *Runner) linkageFor(ctx context.Context, input models.Metadata, result models.ResolvedTrack) (models.LinkageTuple, models.LinkSource, bool) {
	switch result.Source {
	case models.ResolvedTidal:
		tuple := models.LinkageTuple{TidalTrackID: &result.TidalTrackID}
		if input.ISRC != "" {
			if row, err := r.tidalTracks.Get(ctx, result.TidalTrackID); err == nil && strings.EqualFold(row.ISRC, input.ISRC) {
				return tuple, models.SourceISRC, true
			}
		}
		return tuple, models.SourceImportMatch, true

	case models.ResolvedYouTube:
		tuple := models.LinkageTuple{YouTubeTrackID: &result.YouTubeTrackID}
		if input.ISRC != "" {
			if row, err := r.youtubeTracks.Get(ctx, result.YouTubeTrackID); err == nil && strings.EqualFold(row.ISRC, input.ISRC) {
				return tuple, models.SourceISRC, true
			}
		}
		return tuple, models.SourceImportMatch, true
	}

	return models.LinkageTuple{}, "", false
}

func (r *Runner) exportReport(report *formatter.ResolutionReport, format, out string) error {
	var path string
	var err error

	switch format {
	case "csv":
		path, err = formatter.WriteCSVExport(report, out)
	case "markdown", "md":
		path, err = formatter.WriteMarkdownExport(report, out)
	case "text", "txt":
		path, err = formatter.WriteTextExport(report, out)
	default:
		return fmt.Errorf("%w: unknown export format '%s' (csv, markdown, text)", shared.ErrInvalidFlag, format)
	}

	if err != nil {
		return err
	}
	r.writePlain("\nReport written to %s\n", path)
	return nil
}

func countSource(results []models.ResolvedTrack, source models.ResolvedSource) int {
	n := 0
	for _, result := range results {
		if result.Source == source {
			n++
		}
	}
	return n
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a playlist import file against the library and remote catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to a playlist JSON file",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the full report as JSON",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Write a report file (csv, markdown, text)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Base path for the exported report",
			},
		},
		Action: r.Resolve,
	}
}
