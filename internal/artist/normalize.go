package artist

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	apostrophes     = regexp.MustCompile("[’'`]")
	nonAlnumLoose   = regexp.MustCompile(`[^a-z0-9\s]`)
	nonAlnumStrict  = regexp.MustCompile(`[^a-z0-9+\s]`)
	plusSuffixToken = regexp.MustCompile(`^\d+\+$`)
	bracketed       = regexp.MustCompile(`\(.*?\)|\[.*?\]|\{.*?\}`)
	titleQualifiers = regexp.MustCompile(`\b(remaster(ed)?|live|edit|version|mono|stereo|deluxe|feat\.?|ft\.?)\b`)
)

// numberWords maps spelled-out small numbers to digits for strict tokens.
var numberWords = map[string]string{
	"zero":   "0",
	"one":    "1",
	"two":    "2",
	"three":  "3",
	"four":   "4",
	"five":   "5",
	"six":    "6",
	"seven":  "7",
	"eight":  "8",
	"nine":   "9",
	"ten":    "10",
	"eleven": "11",
	"twelve": "12",
}

// nullLike values are treated as missing by CleanText.
var nullLike = map[string]bool{"none": true, "null": true, "nan": true, "na": true}

// CleanText applies NFKC normalization and collapses whitespace. Null-like
// placeholders ("None", "null", "NaN", "NA") become the empty string.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || nullLike[strings.ToLower(s)] {
		return ""
	}
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// StripMarks decomposes s (NFKD) and removes combining marks, so "Sigur Rós"
// becomes "Sigur Ros".
func StripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func foldBase(s string) string {
	s = StripMarks(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return apostrophes.ReplaceAllString(s, "")
}

// NormalizeLoose lowercases, strips diacritics and apostrophes and reduces s
// to space-separated ASCII alphanumeric runs.
func NormalizeLoose(s string) string {
	s = nonAlnumLoose.ReplaceAllString(foldBase(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStrict is NormalizeLoose that also keeps '+' (including the
// full-width form) so names like "2+2" survive.
func NormalizeStrict(s string) string {
	s = strings.ReplaceAll(s, "＋", "+")
	s = nonAlnumStrict.ReplaceAllString(foldBase(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// LooseTokens splits the loose normalization of s into tokens.
func LooseTokens(s string) []string {
	return strings.Fields(NormalizeLoose(s))
}

// StrictTokens splits the strict normalization of s into tokens, mapping
// spelled-out numbers zero through twelve to digits.
func StrictTokens(s string) []string {
	toks := strings.Fields(NormalizeStrict(s))
	for i, t := range toks {
		if d, ok := numberWords[t]; ok {
			toks[i] = d
		}
	}
	return toks
}

// TokenSet returns the set of tokens.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// IsSubset reports whether every element of a is in b.
func IsSubset(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

// TokenSimilarity is the Jaccard index of the loose token sets of a and b.
func TokenSimilarity(a, b string) float64 {
	return Jaccard(TokenSet(LooseTokens(a)), TokenSet(LooseTokens(b)))
}

// HasDigits reports whether any token contains a digit.
func HasDigits(tokens []string) bool {
	for _, t := range tokens {
		for _, r := range t {
			if r >= '0' && r <= '9' {
				return true
			}
		}
	}
	return false
}

// HasPlusSuffix reports whether any token has the "N+" form.
func HasPlusSuffix(tokens []string) bool {
	for _, t := range tokens {
		if plusSuffixToken.MatchString(t) {
			return true
		}
	}
	return false
}

// NormalizeTrackTitle reduces a track title to a comparable form: bracketed
// qualifiers and edition words (remastered, live, deluxe, feat. ...) are
// removed before loose normalization.
func NormalizeTrackTitle(s string) string {
	s = CleanText(s)
	s = strings.ToLower(StripMarks(s))
	s = bracketed.ReplaceAllString(s, " ")
	s = titleQualifiers.ReplaceAllString(s, " ")
	return NormalizeLoose(s)
}
