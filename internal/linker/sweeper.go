package linker

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/matching"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/repositories"
	"github.com/rowanvale/tracklink/internal/shared"
)

const defaultSweepBatchSize = 100

// LibraryStore provides the local library snapshot for re-matching.
type LibraryStore interface {
	ListAll(ctx context.Context) ([]models.LocalTrack, error)
}

// Sweeper periodically revisits unanchored linkages, rows that reference
// provider tracks but no local track, and tries to anchor them against the
// current library.
//
// Anchoring goes through the [Arbitrator], so a sweep is idempotent: anchored
// rows leave the unanchored set and a second pass over the same data links
// nothing.
type Sweeper struct {
	links      *repositories.LinkageRepository
	library    LibraryStore
	matcher    *matching.Matcher
	arbitrator *Arbitrator
	logger     *log.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(links *repositories.LinkageRepository, library LibraryStore, matcher *matching.Matcher, arbitrator *Arbitrator, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Sweeper{
		links:      links,
		library:    library,
		matcher:    matcher,
		arbitrator: arbitrator,
		logger:     shared.WithLogger(logger, "component", "sweeper"),
	}
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Processed int `json:"processed"`
	Linked    int `json:"linked"`
	Skipped   int `json:"skipped"`
}

// Sweep processes one bounded page of unanchored linkages. batchSize of zero
// or below selects the default page size.
func (s *Sweeper) Sweep(ctx context.Context, batchSize int) (SweepResult, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	var result SweepResult

	page, err := s.links.ListUnanchored(ctx, batchSize)
	if err != nil {
		return result, err
	}
	if len(page) == 0 {
		return result, nil
	}

	snapshot, err := s.library.ListAll(ctx)
	if err != nil {
		return result, err
	}

	for _, detail := range page {
		result.Processed++

		target, ok := sweepMetadata(detail)
		if !ok {
			result.Skipped++
			continue
		}

		match, ok := s.matcher.Match(target, snapshot)
		if !ok {
			result.Skipped++
			continue
		}

		err := s.arbitrator.AttachLocalTrack(ctx, detail.Linkage.ID, match.Track.ID, float64(match.Score)/100)
		if err != nil {
			s.logger.Warn("failed to anchor linkage", "linkage", detail.Linkage.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Linked++
	}

	s.logger.Info("sweep pass finished", "processed", result.Processed, "linked", result.Linked, "skipped", result.Skipped)
	return result, nil
}

// sweepMetadata picks the metadata to re-match with. Tidal rows carry ISRCs
// more reliably, so they are preferred over YouTube rows.
func sweepMetadata(detail repositories.LinkageDetail) (models.Metadata, bool) {
	if detail.Tidal != nil {
		return models.Metadata{
			Artist:   detail.Tidal.Artist,
			Title:    detail.Tidal.Title,
			Album:    detail.Tidal.Album,
			Duration: detail.Tidal.Duration,
			ISRC:     detail.Tidal.ISRC,
		}, true
	}
	if detail.YouTube != nil {
		return models.Metadata{
			Artist:   detail.YouTube.Artist,
			Title:    detail.YouTube.Title,
			Album:    detail.YouTube.Album,
			Duration: detail.YouTube.Duration,
			ISRC:     detail.YouTube.ISRC,
		}, true
	}
	return models.Metadata{}, false
}
