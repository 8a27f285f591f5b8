package models

import (
	"time"

	"github.com/rowanvale/tracklink/internal/shared"
)

// LinkSource records how a linkage was established. Sources form a strict
// priority order used by arbitration: manual > isrc > import-match > gap-fill.
type LinkSource string

const (
	SourceManual      LinkSource = "manual"
	SourceISRC        LinkSource = "isrc"
	SourceImportMatch LinkSource = "import-match"
	SourceGapFill     LinkSource = "gap-fill"
)

// Priority returns the arbitration rank of the source. Unknown sources rank
// below every defined one.
func (s LinkSource) Priority() int {
	switch s {
	case SourceManual:
		return 4
	case SourceISRC:
		return 3
	case SourceImportMatch:
		return 2
	case SourceGapFill:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the defined sources.
func (s LinkSource) Valid() bool {
	return s.Priority() > 0
}

// LinkageTuple identifies the references a linkage row asserts. Nil means the
// slot is unlinked.
type LinkageTuple struct {
	LocalTrackID   *string
	TidalTrackID   *string
	YouTubeTrackID *string
}

// Empty reports whether all three references are null.
func (t LinkageTuple) Empty() bool {
	return t.LocalTrackID == nil && t.TidalTrackID == nil && t.YouTubeTrackID == nil
}

// Linkage relates zero-or-one local track to zero-or-one row of each provider
// kind. Rows are never physically deleted; Stale is the tombstone.
type Linkage struct {
	ID             int64
	LocalTrackID   *string
	TidalTrackID   *string
	YouTubeTrackID *string
	Confidence     float64 // 0..1
	Source         LinkSource
	Stale          bool
	CreatedAt      time.Time
}

// Tuple returns the row's linkage tuple.
func (l *Linkage) Tuple() LinkageTuple {
	return LinkageTuple{
		LocalTrackID:   l.LocalTrackID,
		TidalTrackID:   l.TidalTrackID,
		YouTubeTrackID: l.YouTubeTrackID,
	}
}

// Validate rejects orphan linkages (all three references null) and unknown
// sources.
func (l *Linkage) Validate() error {
	if l.Tuple().Empty() {
		return shared.ErrInvalidLinkage
	}
	if !l.Source.Valid() {
		return shared.ErrInvalidInput
	}
	return nil
}

// Outranks reports whether l precedes other in the arbitration total order:
// higher source priority, then higher confidence, then newer creation time,
// then higher row id. The final id comparison makes the order total.
func (l *Linkage) Outranks(other *Linkage) bool {
	if l.Source.Priority() != other.Source.Priority() {
		return l.Source.Priority() > other.Source.Priority()
	}
	if l.Confidence != other.Confidence {
		return l.Confidence > other.Confidence
	}
	if !l.CreatedAt.Equal(other.CreatedAt) {
		return l.CreatedAt.After(other.CreatedAt)
	}
	return l.ID > other.ID
}

// ResolvedSource identifies where a pipeline input was resolved.
type ResolvedSource string

const (
	ResolvedLocal      ResolvedSource = "local"
	ResolvedTidal      ResolvedSource = "tidal"
	ResolvedYouTube    ResolvedSource = "youtube"
	ResolvedUnresolved ResolvedSource = "unresolved"
)

// ResolvedTrack is the per-input result of a batch resolution. Confidence is
// a 0-100 match score and is only informative for resolved entries.
//
// Duplicate marks an input whose local match was already claimed by an
// earlier input in the same batch; it keeps its output slot but is excluded
// from the importable set and is not routed to remote providers.
type ResolvedTrack struct {
	Index          int
	Source         ResolvedSource
	Confidence     int
	LocalTrackID   string
	TidalTrackID   string // tidal_tracks row id
	YouTubeTrackID string // youtube_tracks row id
	Duplicate      bool
	DuplicateOf    int // winning input index, meaningful when Duplicate
}

// Resolved reports whether the entry matched anywhere.
func (r ResolvedTrack) Resolved() bool {
	return r.Source != ResolvedUnresolved
}
