// package linker owns the linkage table's write path and its read-side
// reductions.
//
// All writes go through the [Arbitrator], which serializes competing claims
// for the same tuple inside a transaction. Reads reduce the raw rows to one
// preferred linkage per provider slot.
package linker

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/repositories"
	"github.com/rowanvale/tracklink/internal/shared"
)

// Arbitrator decides which linkage row wins when several assert the same
// tuple, and keeps the table deduplicated as a side effect of every write.
type Arbitrator struct {
	links  *repositories.LinkageRepository
	logger *log.Logger
}

// NewArbitrator creates an Arbitrator over the given linkage repository.
func NewArbitrator(links *repositories.LinkageRepository, logger *log.Logger) *Arbitrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Arbitrator{
		links:  links,
		logger: shared.WithLogger(logger, "component", "arbitrator"),
	}
}

// CreateLinkage records a new claim for the tuple and arbitrates it against
// the tuple's existing active rows in one transaction.
//
// The incoming claim replaces the standing winner only when it is strictly
// stronger on source priority, or on confidence at equal priority; otherwise
// the standing winner keeps its row. Either way, every other active row for
// the tuple is tombstoned. Returns the row that holds the tuple afterwards.
func (a *Arbitrator) CreateLinkage(ctx context.Context, tuple models.LinkageTuple, confidence float64, source models.LinkSource) (*models.Linkage, error) {
	incoming := &models.Linkage{
		LocalTrackID:   tuple.LocalTrackID,
		TidalTrackID:   tuple.TidalTrackID,
		YouTubeTrackID: tuple.YouTubeTrackID,
		Confidence:     confidence,
		Source:         source,
	}
	if err := incoming.Validate(); err != nil {
		return nil, err
	}

	tx, err := a.links.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	group, err := a.links.ActiveByTuple(ctx, tx, tuple)
	if err != nil {
		return nil, err
	}

	winner, err := a.arbitrate(ctx, tx, incoming, group)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit: %v", shared.ErrStoreWrite, err)
	}

	return winner, nil
}

// arbitrate settles incoming against the tuple's active group inside tx.
func (a *Arbitrator) arbitrate(ctx context.Context, tx *sql.Tx, incoming *models.Linkage, group []*models.Linkage) (*models.Linkage, error) {
	if len(group) == 0 {
		if err := a.links.Insert(ctx, tx, incoming); err != nil {
			return nil, err
		}
		return incoming, nil
	}

	standing := group[0]
	for _, row := range group[1:] {
		if row.Outranks(standing) {
			standing = row
		}
	}

	if incomingWins(incoming, standing) {
		standing.Confidence = incoming.Confidence
		standing.Source = incoming.Source
		if err := a.links.Update(ctx, tx, standing); err != nil {
			return nil, err
		}
		a.logger.Debug("incoming claim displaced standing linkage", "linkage", standing.ID, "source", standing.Source)
	}

	var losers []int64
	for _, row := range group {
		if row.ID != standing.ID {
			losers = append(losers, row.ID)
		}
	}
	if err := a.links.MarkStale(ctx, tx, losers...); err != nil {
		return nil, err
	}
	if len(losers) > 0 {
		a.logger.Debug("tombstoned duplicate linkages", "tuple_winner", standing.ID, "count", len(losers))
	}

	return standing, nil
}

// incomingWins applies the replacement rule: strictly higher source priority,
// or strictly higher confidence at equal priority. Age and row id never let
// an incoming claim displace a standing winner.
func incomingWins(incoming, standing *models.Linkage) bool {
	if incoming.Source.Priority() != standing.Source.Priority() {
		return incoming.Source.Priority() > standing.Source.Priority()
	}
	return incoming.Confidence > standing.Confidence
}

// AttachLocalTrack anchors an unanchored linkage to a local track in one
// transaction, then re-arbitrates the group the new tuple lands in.
func (a *Arbitrator) AttachLocalTrack(ctx context.Context, linkageID int64, localTrackID string, confidence float64) error {
	if localTrackID == "" {
		return fmt.Errorf("%w: local track id is required", shared.ErrInvalidInput)
	}

	tx, err := a.links.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	row, err := a.links.Get(ctx, tx, linkageID)
	if err != nil {
		return err
	}
	if row.Stale {
		return fmt.Errorf("%w: linkage %d is stale", shared.ErrInvalidLinkage, linkageID)
	}
	if row.LocalTrackID != nil {
		return fmt.Errorf("%w: linkage %d is already anchored", shared.ErrInvalidLinkage, linkageID)
	}

	// The anchor comes from a fuzzy re-match, so the row is downgraded to a
	// gap-fill claim. Manual rows stay manual: the operator asserted them.
	row.LocalTrackID = &localTrackID
	row.Confidence = confidence
	if row.Source != models.SourceManual {
		row.Source = models.SourceGapFill
	}

	if err := a.links.Update(ctx, tx, row); err != nil {
		return err
	}

	// The anchored tuple may collide with rows written by other paths.
	group, err := a.links.ActiveByTuple(ctx, tx, row.Tuple())
	if err != nil {
		return err
	}

	standing := row
	for _, other := range group {
		if other.ID != row.ID && other.Outranks(standing) {
			standing = other
		}
	}

	var losers []int64
	for _, other := range group {
		if other.ID != standing.ID {
			losers = append(losers, other.ID)
		}
	}
	if err := a.links.MarkStale(ctx, tx, losers...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", shared.ErrStoreWrite, err)
	}

	a.logger.Info("anchored linkage to local track", "linkage", standing.ID, "local_track", localTrackID)
	return nil
}

// Discard tombstones a linkage row. Discarding a row that is already stale
// is a no-op, so a stale review queue can be settled twice without error.
func (a *Arbitrator) Discard(ctx context.Context, linkageID int64) error {
	tx, err := a.links.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	row, err := a.links.Get(ctx, tx, linkageID)
	if err != nil {
		return err
	}
	if row.Stale {
		return nil
	}

	if err := a.links.MarkStale(ctx, tx, row.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", shared.ErrStoreWrite, err)
	}

	a.logger.Info("discarded linkage", "linkage", row.ID)
	return nil
}

// FindForLocalTrack returns the preferred active linkages for one local
// track: at most one per provider slot. Store failures degrade to an empty
// result.
func (a *Arbitrator) FindForLocalTrack(ctx context.Context, trackID string) []models.Linkage {
	rows, err := a.links.ActiveForLocalTrack(ctx, trackID)
	if err != nil {
		a.logger.Error("linkage lookup failed", "local_track", trackID, "error", err)
		return nil
	}
	return reduce(rows)
}

// FindForAlbum returns the preferred active linkages for every local track on
// the album. Store failures degrade to an empty result.
func (a *Arbitrator) FindForAlbum(ctx context.Context, albumTitle string) []models.Linkage {
	rows, err := a.links.ActiveForAlbum(ctx, albumTitle)
	if err != nil {
		a.logger.Error("album linkage lookup failed", "album", albumTitle, "error", err)
		return nil
	}
	return reduce(rows)
}

// reduce keeps one preferred row per (local track, provider slot) pair. The
// tidal and youtube slots compete independently; a row carrying both can win
// both and is still emitted once.
func reduce(rows []*models.Linkage) []models.Linkage {
	type slotKey struct {
		localID string
		slot    string
	}

	winners := make(map[slotKey]*models.Linkage)
	consider := func(key slotKey, row *models.Linkage) {
		if standing, ok := winners[key]; !ok || row.Outranks(standing) {
			winners[key] = row
		}
	}

	for _, row := range rows {
		localID := ""
		if row.LocalTrackID != nil {
			localID = *row.LocalTrackID
		}
		if row.TidalTrackID != nil {
			consider(slotKey{localID, "tidal"}, row)
		}
		if row.YouTubeTrackID != nil {
			consider(slotKey{localID, "youtube"}, row)
		}
	}

	seen := make(map[int64]bool)
	var out []models.Linkage
	for _, row := range winners {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := "", ""
		if out[i].LocalTrackID != nil {
			li = *out[i].LocalTrackID
		}
		if out[j].LocalTrackID != nil {
			lj = *out[j].LocalTrackID
		}
		if li != lj {
			return li < lj
		}
		return out[i].Outranks(&out[j])
	})

	return out
}
