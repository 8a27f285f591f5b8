package matching

import (
	"strings"
	"testing"

	"github.com/rowanvale/tracklink/internal/models"
)

func TestMatcherAcceptanceBoundary(t *testing.T) {
	matcher := NewMatcher(65, 35)

	// Containment scoring yields exactly len(shorter)/len(longer) percent, so
	// a 70-char prefix of a 100-char string scores exactly 70.
	at := func(n int) (string, string) {
		return strings.Repeat("a", n), strings.Repeat("a", n) + " " + strings.Repeat("b", 99-n)
	}

	t.Run("exactly at threshold is accepted", func(t *testing.T) {
		title, candTitle := at(70)
		target := models.Metadata{Title: title, Artist: title}
		candidates := []models.LocalTrack{{ID: "t1", Title: candTitle, ArtistName: candTitle}}

		if got := matcher.Score(target, candidates[0]); got != 70 {
			t.Fatalf("expected boundary score 70, got %d", got)
		}
		if _, ok := matcher.Match(target, candidates); !ok {
			t.Error("expected candidate scoring 70 to be accepted")
		}
	})

	t.Run("one below threshold is rejected", func(t *testing.T) {
		title, candTitle := at(69)
		target := models.Metadata{Title: title, Artist: title}
		candidates := []models.LocalTrack{{ID: "t1", Title: candTitle, ArtistName: candTitle}}

		if got := matcher.Score(target, candidates[0]); got != 69 {
			t.Fatalf("expected boundary score 69, got %d", got)
		}
		if _, ok := matcher.Match(target, candidates); ok {
			t.Error("expected candidate scoring 69 to be rejected")
		}
	})
}

func TestMatcherExactMatch(t *testing.T) {
	matcher := NewMatcher(0, 0) // falls back to default weights

	target := models.Metadata{Artist: "Artist A", Title: "Song X", Duration: 200}
	candidates := []models.LocalTrack{
		{ID: "other", Title: "Song Y", ArtistName: "Artist B", Duration: 180},
		{ID: "t1", Title: "Song X", ArtistName: "Artist A", Duration: 200},
	}

	match, ok := matcher.Match(target, candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Track.ID != "t1" {
		t.Errorf("expected track t1, got %s", match.Track.ID)
	}
	if match.Score != 100 {
		t.Errorf("expected score 100, got %d", match.Score)
	}
}

func TestMatcherCorroboratingSignals(t *testing.T) {
	matcher := NewMatcher(65, 35)

	target := models.Metadata{Artist: "Artist A", Title: "Song X"}
	candidate := models.LocalTrack{Title: "Song X", ArtistName: "Artist A"}
	base := matcher.Score(target, candidate)

	t.Run("album agreement raises the score", func(t *testing.T) {
		withAlbum := models.Metadata{Artist: "Artist A", Title: "Song X pt 2", Album: "Album Y"}
		plain := models.LocalTrack{Title: "Song X pt 3", ArtistName: "Artist A"}
		corroborated := models.LocalTrack{Title: "Song X pt 3", ArtistName: "Artist A", AlbumTitle: "Album Y"}

		if matcher.Score(withAlbum, corroborated) <= matcher.Score(withAlbum, plain) {
			t.Error("expected album agreement to raise the score")
		}
	})

	t.Run("album gap is not a hard filter", func(t *testing.T) {
		withAlbum := models.Metadata{Artist: "Artist A", Title: "Song X", Album: "Album Y"}
		if got := matcher.Score(withAlbum, candidate); got < base {
			t.Errorf("missing candidate album lowered score: %d < %d", got, base)
		}
	})

	t.Run("score is capped at 100", func(t *testing.T) {
		full := models.Metadata{Artist: "Artist A", Title: "Song X", Album: "Album Y", Duration: 200}
		rich := models.LocalTrack{Title: "Song X", ArtistName: "Artist A", AlbumTitle: "Album Y", Duration: 202}
		if got := matcher.Score(full, rich); got != 100 {
			t.Errorf("expected capped score 100, got %d", got)
		}
	})
}

func TestMatcherDeterministicTieBreak(t *testing.T) {
	matcher := NewMatcher(65, 35)

	target := models.Metadata{Artist: "Artist A", Title: "Song X"}
	candidates := []models.LocalTrack{
		{ID: "first", Title: "Song X", ArtistName: "Artist A"},
		{ID: "second", Title: "Song X", ArtistName: "Artist A"},
	}

	for i := 0; i < 10; i++ {
		match, ok := matcher.Match(target, candidates)
		if !ok {
			t.Fatal("expected a match")
		}
		if match.Track.ID != "first" {
			t.Fatalf("tie broke to %s, want first", match.Track.ID)
		}
	}
}

func TestMatcherNoCandidates(t *testing.T) {
	matcher := NewMatcher(65, 35)
	if _, ok := matcher.Match(models.Metadata{Title: "Song X"}, nil); ok {
		t.Error("expected no match against empty candidate list")
	}
}
