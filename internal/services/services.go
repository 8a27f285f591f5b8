// package services implements catalog clients for remote music providers
//
// Tidal (public API, client-credentials auth) and YouTube Music (via the
// ytmusicapi proxy). Clients are injected into the resolution pipeline and
// hold no global state.
package services

import (
	"context"
	"math"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/rowanvale/tracklink/internal/models"
)

// Provider is a remote catalog that can find the best candidate for each
// metadata item in a batch.
//
// FindMatchesForBatch returns a slice with the same length and order as
// items; a nil entry means no acceptable candidate. Transport failures are
// returned as errors and the caller degrades the whole chunk.
type Provider interface {
	Name() string
	FindMatchesForBatch(ctx context.Context, items []models.Metadata) ([]*models.Match, error)
}

// candidateThreshold is the minimum Jaro-Winkler similarity between the
// queried "artist title" string and a candidate before it is considered a
// match at all.
const candidateThreshold = 0.85

// bestCandidate selects the closest candidate for one metadata item, or nil
// when none clears the acceptance threshold.
//
// An exact ISRC agreement short-circuits string comparison entirely.
func bestCandidate(item models.Metadata, candidates []models.Match) *models.Match {
	if item.ISRC != "" {
		for i := range candidates {
			if meta := candidates[i].Metadata(); meta.ISRC != "" && strings.EqualFold(meta.ISRC, item.ISRC) {
				match := candidates[i]
				match.Score = 100
				return &match
			}
		}
	}

	query := strings.ToLower(item.Artist + " " + item.Title)
	jw := metrics.NewJaroWinkler()

	var best *models.Match
	var bestScore float64

	for i := range candidates {
		meta := candidates[i].Metadata()
		cand := strings.ToLower(meta.Artist + " " + meta.Title)
		score := strutil.Similarity(query, cand, jw)
		if score < candidateThreshold {
			continue
		}
		if best == nil || score > bestScore {
			match := candidates[i]
			best = &match
			bestScore = score
		}
	}

	if best != nil {
		best.Score = int(math.Round(bestScore * 100))
	}
	return best
}
