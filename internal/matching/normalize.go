package matching

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
)

// annotationTerms matches the release annotations labels bolt onto titles.
const annotationTerms = `(?:remaster(?:ed)?|live|deluxe|expanded|edition|version|mix|remix|mono|stereo|demo|bonus|single|radio edit|acoustic|instrumental|anniversary|reissue|re-issue)`

var (
	bracketAnnotationRegex = regexp.MustCompile(`[(\[][^)\]]*` + annotationTerms + `[^)\]]*[)\]]`)
	dashAnnotationRegex    = regexp.MustCompile(`\s[-–—]\s[^-–—]*` + annotationTerms + `.*$`)
	punctuationRegex       = regexp.MustCompile(`[^a-z0-9]+`)
	whitespaceRegex        = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes free-text metadata for comparison: transliterates
// to ASCII, folds case, strips remaster/live/edition annotations (bracketed
// or dash-suffixed), removes punctuation and collapses whitespace.
//
// Normalize is pure and idempotent: the output contains only lowercase ASCII
// letters, digits and single spaces, so a second pass changes nothing.
func Normalize(text string) string {
	s := strings.ToLower(unidecode.Unidecode(text))
	s = bracketAnnotationRegex.ReplaceAllString(s, " ")
	s = dashAnnotationRegex.ReplaceAllString(s, " ")
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits the normalized form of text into comparison tokens.
func Tokens(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// Key builds a stable comparison key for a (title, artist) pair.
func Key(title, artist string) string {
	return Normalize(title) + "|" + Normalize(artist)
}
