package matching

import "github.com/rowanvale/tracklink/internal/models"

const (
	// AcceptThreshold is the fixed acceptance boundary for a local match.
	// Scores below it mean "no match", never "low-confidence match".
	AcceptThreshold = 70

	defaultTitleWeight  = 65
	defaultArtistWeight = 35

	// Corroborating signals raise confidence; they are never hard filters,
	// so metadata gaps on the remote side degrade gracefully.
	albumAgreementBonus   = 5
	albumAgreementCutoff  = 80
	durationBonus         = 5
	durationToleranceSecs = 5
)

// LocalMatch is an accepted local-library candidate with its 0-100 score.
type LocalMatch struct {
	Track models.LocalTrack
	Score int
}

// Matcher matches inbound metadata against local-library candidates using a
// weighted title/artist score with album and duration corroboration.
type Matcher struct {
	titleWeight  int
	artistWeight int
}

// NewMatcher creates a Matcher with the given title/artist weights. Weights
// must sum to 100; anything else falls back to the 65/35 default policy.
func NewMatcher(titleWeight, artistWeight int) *Matcher {
	if titleWeight <= 0 || artistWeight <= 0 || titleWeight+artistWeight != 100 {
		titleWeight, artistWeight = defaultTitleWeight, defaultArtistWeight
	}
	return &Matcher{titleWeight: titleWeight, artistWeight: artistWeight}
}

// Match returns the best candidate clearing [AcceptThreshold], or false when
// no candidate does. Deterministic: ties keep the earliest candidate.
func (m *Matcher) Match(target models.Metadata, candidates []models.LocalTrack) (*LocalMatch, bool) {
	var best *LocalMatch

	for _, candidate := range candidates {
		score := m.Score(target, candidate)
		if score < AcceptThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &LocalMatch{Track: candidate, Score: score}
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

// Score computes the weighted 0-100 score of one candidate against the
// target metadata.
func (m *Matcher) Score(target models.Metadata, candidate models.LocalTrack) int {
	meta := candidate.Metadata()

	title := Similarity(target.Title, meta.Title)
	artist := Similarity(target.Artist, meta.Artist)

	score := (title*m.titleWeight + artist*m.artistWeight) / 100

	if target.Album != "" && meta.Album != "" &&
		Similarity(target.Album, meta.Album) >= albumAgreementCutoff {
		score += albumAgreementBonus
	}

	if target.Duration > 0 && meta.Duration > 0 &&
		absInt(target.Duration-meta.Duration) <= durationToleranceSecs {
		score += durationBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
