package resolve

import (
	"strings"

	"github.com/sydlexius/artistorigin/internal/artist"
)

// Score weights.
const (
	scoreRejected      = -999
	scoreExactVariant  = 80
	scoreOverlapWeight = 45
	scoreSubsetFloor   = 35
	bonusEnAliasExact  = 20
	bonusEnAliasClose  = 12
	bonusGroup         = 5
	bonusDisambCountry = 5
	enAliasCloseMin    = 0.6
)

// CountryInferrer extracts an ISO 3166-1 alpha-2 code from free text.
type CountryInferrer interface {
	Infer(text string) (string, bool)
}

// Scorer ranks catalog candidates against a streaming-service name.
type Scorer struct {
	inferrer CountryInferrer
}

// NewScorer creates a Scorer. The inferrer drives the disambiguation bonus
// and may be nil, in which case that bonus never applies.
func NewScorer(inferrer CountryInferrer) *Scorer {
	return &Scorer{inferrer: inferrer}
}

// Score returns the confidence that c is the artist called sourceName.
// A source name with no tokens scores -999.
func (s *Scorer) Score(sourceName string, c artist.Candidate) int {
	src := artist.NormalizeLoose(sourceName)
	if src == "" {
		return scoreRejected
	}
	srcStrict := artist.TokenSet(artist.StrictTokens(sourceName))

	variants, enAliases := nameVariants(c)
	best := 0
	for _, v := range variants {
		var vs int
		if artist.NormalizeLoose(v) == src {
			vs = scoreExactVariant
		} else {
			vs = int(scoreOverlapWeight * artist.TokenSimilarity(sourceName, v))
			if len(srcStrict) > 0 && artist.IsSubset(srcStrict, artist.TokenSet(artist.StrictTokens(v))) {
				vs = max(vs, scoreSubsetFloor)
			}
		}
		best = max(best, vs)
	}
	score := best

	// Only the first primary English alias counts.
	for _, al := range enAliases {
		if artist.NormalizeLoose(al) == src {
			score += bonusEnAliasExact
			break
		}
		if artist.TokenSimilarity(al, sourceName) >= enAliasCloseMin {
			score += bonusEnAliasClose
			break
		}
	}

	if c.IsGroup() {
		score += bonusGroup
	}
	if s.inferrer != nil {
		if d := artist.CleanText(c.Disambiguation); d != "" {
			if _, ok := s.inferrer.Infer(d); ok {
				score += bonusDisambCountry
			}
		}
	}
	score += c.SearchScore / 10
	return score
}

// nameVariants returns the distinct names a candidate is known by (name,
// sort name, then each alias name and sort name, deduped by loose form) and
// the names of its primary English aliases.
func nameVariants(c artist.Candidate) (variants, enAliases []string) {
	var all []string
	add := func(v string) {
		if v = artist.CleanText(v); v != "" {
			all = append(all, v)
		}
	}
	add(c.Name)
	add(c.SortName)
	for _, al := range c.Aliases {
		add(al.Name)
		add(al.SortName)
		if al.Primary && strings.EqualFold(al.Locale, "en") {
			if nm := firstNonEmpty(al.Name, al.SortName); nm != "" {
				enAliases = append(enAliases, nm)
			}
		}
	}

	seen := make(map[string]bool, len(all))
	for _, v := range all {
		n := artist.NormalizeLoose(v)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		variants = append(variants, v)
	}
	return variants, enAliases
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
