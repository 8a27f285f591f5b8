package matching

import (
	"strings"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tt := []struct {
		name string
		a, b string
		want int
	}{
		{name: "both empty", a: "", b: "", want: 100},
		{name: "one empty", a: "song x", b: "", want: 0},
		{name: "pure punctuation equals empty", a: "?!", b: "", want: 100},
		{name: "exact", a: "Song X", b: "Song X", want: 100},
		{name: "equal after normalization", a: "Song X (2011 Remaster)", b: "song x", want: 100},
		{name: "containment ratio", a: "song x", b: "song x pt 2", want: 100 * 6 / 11},
		{name: "token overlap", a: "the quick brown fox", b: "fox brown lazy dog", want: 100 * 2 / 6},
		{name: "no overlap", a: "alpha beta", b: "gamma delta", want: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Similarity(tc.a, tc.b); got != tc.want {
				t.Errorf("Similarity(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"song x", ""},
		{"song x", "song x pt 2"},
		{"the quick brown fox", "fox brown lazy dog"},
		{"Beyoncé", "beyonce"},
		{strings.Repeat("a", 70), strings.Repeat("a", 70) + " " + strings.Repeat("b", 29)},
	}

	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %d but reversed = %d", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "a b c d e f g"},
		{"one two", "two three"},
		{"x", "y"},
	}

	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 100 {
			t.Errorf("Similarity(%q, %q) = %d out of range", p[0], p[1], got)
		}
	}
}
