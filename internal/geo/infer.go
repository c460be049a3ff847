package geo

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/sydlexius/artistorigin/internal/artist"
)

var (
	placePhrases = []*regexp.Regexp{
		regexp.MustCompile(`\bfrom\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`),
		regexp.MustCompile(`\bin\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`),
		regexp.MustCompile(`\bbased\s+in\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`),
	}
	demonymWord = regexp.MustCompile(`\b[a-z]{3,25}\b`)
)

var demonymSuffixes = []string{"ese", "ish", "ian", "ean", "an"}

// notDemonyms are common words that carry a demonym suffix. Some of them
// also match ISO codes or country names ("can" is Canada's alpha-3 code).
var notDemonyms = map[string]bool{
	"can": true, "man": true, "woman": true, "human": true, "plan": true,
	"than": true, "began": true, "fan": true, "clan": true, "ban": true,
	"van": true, "pan": true, "span": true, "scan": true, "urban": true,
	"organ": true, "orphan": true, "titan": true, "caravan": true,
	"musician": true, "comedian": true, "guardian": true, "technician": true,
	"veteran": true, "median": true, "mean": true, "clean": true,
	"ocean": true, "bean": true, "these": true, "cheese": true,
	"wish": true, "fish": true, "dish": true, "finish": true, "publish": true,
	"establish": true,
}

// knownNationalities are expanded without suffix stripping.
var knownNationalities = map[string][]string{
	"south korean": {"South Korea", "Korea, Republic of", "Korea"},
	"north korean": {"North Korea", "Korea, Democratic People's Republic of", "Korea"},
	"korean":       {"South Korea", "Korea, Republic of", "Korea"},
	"american":     {"United States", "United States of America", "USA", "America"},
	"british":      {"United Kingdom", "UK", "Great Britain", "Britain"},
}

// Inferencer extracts a country code from free text such as a catalog
// disambiguation note ("Belgian singer", "rock band from Reykjavik").
type Inferencer struct {
	extractor EntityExtractor
	logger    *slog.Logger
}

// NewInferencer creates an Inferencer. A nil extractor disables the entity
// extraction step.
func NewInferencer(extractor EntityExtractor, logger *slog.Logger) *Inferencer {
	if extractor == nil {
		extractor = NoExtractor{}
	}
	return &Inferencer{
		extractor: extractor,
		logger:    logger.With(slog.String("component", "geo")),
	}
}

// Infer returns the first country the text points to. The chain is: the
// whole text as a country name, "from X" / "in X" / "based in X" phrases,
// extracted entities, and finally a scan for demonym-like words.
func (inf *Inferencer) Infer(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}

	if code, ok := Convert(t); ok {
		return code, true
	}

	for _, place := range PlacePhrases(t) {
		if code, ok := resolvePlace(place); ok {
			return code, true
		}
	}

	if code, ok := inf.fromEntities(t); ok {
		return code, true
	}

	for _, word := range Demonyms(t) {
		for _, cand := range NationalityCandidates(word) {
			if code, ok := resolveName(cand); ok {
				return code, true
			}
		}
	}
	return "", false
}

func (inf *Inferencer) fromEntities(text string) (string, bool) {
	ents := inf.extractor.Extract(text)
	if len(ents) == 0 {
		return "", false
	}

	var places, nationalities []string
	for _, e := range ents {
		switch e.Kind {
		case EntityPlace:
			places = append(places, e.Text)
		case EntityNationality:
			nationalities = append(nationalities, e.Text)
		}
	}

	for _, p := range uniqueByKey(places) {
		if code, ok := resolvePlace(p); ok {
			return code, true
		}
	}
	for _, n := range uniqueByKey(nationalities) {
		if code, ok := fromNationality(n); ok {
			return code, true
		}
	}
	inf.logger.Debug("entities did not resolve to a country",
		slog.Int("places", len(places)),
		slog.Int("nationalities", len(nationalities)))
	return "", false
}

// fromNationality resolves a nationality span, first as a whole and then
// word by word, so "Dutch DJ" resolves through "Dutch".
func fromNationality(span string) (string, bool) {
	tries := []string{span}
	if words := strings.Fields(span); len(words) > 1 {
		for _, w := range words {
			// Short words would match ISO codes ("DJ" is Djibouti).
			if len([]rune(w)) >= 4 && !notDemonyms[strings.ToLower(w)] {
				tries = append(tries, w)
			}
		}
	}
	for _, n := range tries {
		if code, ok := resolveName(n); ok {
			return code, true
		}
		for _, cand := range NationalityCandidates(n) {
			if code, ok := resolveName(cand); ok {
				return code, true
			}
		}
	}
	return "", false
}

func resolvePlace(place string) (string, bool) {
	if code, ok := Gazetteer(place); ok {
		return code, true
	}
	return resolveName(place)
}

func resolveName(name string) (string, bool) {
	if code, ok := Convert(name); ok {
		return code, true
	}
	return Lookup(name)
}

// PlacePhrases returns the capitalized word runs following "from", "in" and
// "based in", deduplicated and in pattern order.
func PlacePhrases(text string) []string {
	var out []string
	for _, re := range placePhrases {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return uniqueByKey(out)
}

// Demonyms returns the words of text that look like nationality adjectives.
func Demonyms(text string) []string {
	t := simpleFold(text)
	if t == "" {
		return nil
	}
	var hits []string
	for _, phrase := range []string{"south korean", "north korean"} {
		if strings.Contains(t, phrase) {
			hits = append(hits, phrase)
		}
	}
	for _, w := range demonymWord.FindAllString(t, -1) {
		if notDemonyms[w] {
			continue
		}
		if _, ok := knownNationalities[w]; ok || hasDemonymSuffix(w) {
			hits = append(hits, w)
		}
	}
	return uniqueByKey(hits)
}

// NationalityCandidates expands a nationality adjective into country names
// to try, the adjective itself first.
func NationalityCandidates(norp string) []string {
	t := simpleFold(norp)
	if t == "" {
		return nil
	}
	for key, names := range knownNationalities {
		if key == t || (strings.Contains(key, " ") && strings.Contains(t, key)) {
			return append([]string(nil), names...)
		}
	}

	cands := []string{norp}
	for _, suf := range demonymSuffixes {
		if !strings.HasSuffix(t, suf) || len(t) <= len(suf)+2 {
			continue
		}
		base := strings.TrimSuffix(t, suf)
		cands = append(cands,
			titleCase(base),
			titleCase(base+"a"),
			titleCase(base+"e"),
			titleCase(base+"ia"),
			titleCase(base+"land"))
	}
	return uniqueByKey(cands)
}

func hasDemonymSuffix(w string) bool {
	for _, suf := range demonymSuffixes {
		if strings.HasSuffix(w, suf) {
			return true
		}
	}
	return false
}

// simpleFold strips diacritics, lowercases and collapses whitespace without
// touching punctuation.
func simpleFold(s string) string {
	s = strings.ToLower(strings.TrimSpace(artist.StripMarks(s)))
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func uniqueByKey(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		k := simpleFold(it)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
