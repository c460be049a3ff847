package resolve

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/sydlexius/artistorigin/internal/artist"
)

// Lookup is the cached view of every external service the resolver needs.
type Lookup interface {
	Corroborator
	ArtistMetadata(ctx context.Context, link string) (*artist.Metadata, bool)
	TopTracks(ctx context.Context, link string) []artist.TopTrack
	ArtistsByURL(ctx context.Context, link string) []artist.LinkedArtist
	SearchArtists(ctx context.Context, name string) []artist.Candidate
	ExactNameCandidates(ctx context.Context, name string) []artist.Candidate
	Country(ctx context.Context, mbid string) (string, bool)
	HistoryArtist(ctx context.Context, artistName, track string) (string, bool)
}

// NameTranslator renders an artist name in the language of its tracks.
type NameTranslator interface {
	TranslatedName(ctx context.Context, name string, trackTitles []string) (string, bool)
}

// Tuning controls candidate selection in the scored search.
type Tuning struct {
	TopN       int
	MinScore   int
	CloseDelta int
	URLGate    int
}

// DefaultTuning returns the standard search tuning.
func DefaultTuning() Tuning {
	return Tuning{TopN: 2, MinScore: 45, CloseDelta: 8, URLGate: 60}
}

// Resolver maps streaming-service artists to catalog identifiers and
// countries. It is safe for concurrent use when its Lookup is.
type Resolver struct {
	lookup     Lookup
	translator NameTranslator
	scorer     *Scorer
	validator  *Validator
	tuning     Tuning
	logger     *slog.Logger
}

// New creates a Resolver. A nil translator disables the translated-name
// branches.
func New(lookup Lookup, translator NameTranslator, inferrer CountryInferrer, tuning Tuning, logger *slog.Logger) *Resolver {
	return &Resolver{
		lookup:     lookup,
		translator: translator,
		scorer:     NewScorer(inferrer),
		validator:  NewValidator(lookup, tuning.URLGate),
		tuning:     tuning,
		logger:     logger.With(slog.String("component", "resolver")),
	}
}

// Resolve runs the resolution chain for one artist. It never fails: a panic
// inside the chain yields a MethodFailed result so a batch can continue.
func (r *Resolver) Resolve(ctx context.Context, p artist.Profile) (res Result) {
	p = artist.Profile{Name: artist.CleanText(p.Name), Link: artist.CleanText(p.Link)}
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("resolution panicked",
				slog.String("artist", p.Name),
				slog.String("link", p.Link),
				slog.String("panic", fmt.Sprint(v)),
				slog.String("stack", string(debug.Stack())))
			res = Result{Artist: p, Method: MethodFailed}
		}
	}()
	return r.resolve(ctx, p)
}

func (r *Resolver) resolve(ctx context.Context, p artist.Profile) Result {
	tracks := r.lookup.TopTracks(ctx, p.Link)
	titles := artist.TrackTitles(tracks)

	linked := r.lookup.ArtistsByURL(ctx, p.Link)
	if len(linked) == 1 {
		if country, ok := r.lookup.Country(ctx, linked[0].ID); ok {
			return Result{Artist: p, MBID: linked[0].ID, Country: country, Method: MethodDirectLink}
		}
	}

	noMatch := MethodNoMatchNoLinks
	if len(linked) > 1 {
		noMatch = MethodNoMatchMultipleLinks
	}

	var partial *Result
	if hist, ok := r.history(ctx, p, titles); ok {
		if country, ok := r.lookup.Country(ctx, hist.MBID); ok {
			hist.Country = country
			return hist
		}
		partial = &hist
	}

	searched, reason := r.scoredSearch(ctx, p, tracks, titles)
	if searched != "" {
		if country, ok := r.lookup.Country(ctx, searched); ok {
			return Result{Artist: p, MBID: searched, Country: country, Method: MethodScoredSearch, Reason: reason}
		}
	}

	if mbid, ok := r.uniqueExactName(ctx, p.Name); ok {
		if country, ok := r.lookup.Country(ctx, mbid); ok {
			return Result{Artist: p, MBID: mbid, Country: country, Method: MethodUniqueExactName}
		}
	}

	switch {
	case partial != nil:
		return *partial
	case searched != "":
		return Result{Artist: p, MBID: searched, Method: MethodScoredSearchNoCountry, Reason: reason}
	case len(linked) == 1:
		return Result{Artist: p, MBID: linked[0].ID, Method: MethodDirectLinkNoCountry}
	}
	return Result{Artist: p, Method: noMatch}
}

// history asks the listening-history service about each top track in turn,
// first with the artist's own name and then, if that finds nothing, with
// the translated name.
func (r *Resolver) history(ctx context.Context, p artist.Profile, titles []string) (Result, bool) {
	if len(titles) == 0 {
		return Result{}, false
	}
	diag := Diagnostics{TotalTracks: len(titles), Phase: PhaseOriginal}
	try := func(name string) (string, bool) {
		for _, title := range titles {
			diag.TracksTried++
			if mbid, ok := r.lookup.HistoryArtist(ctx, name, title); ok {
				diag.TrackUsed = title
				return mbid, true
			}
		}
		return "", false
	}

	method := MethodHistoryLookup
	mbid, ok := try(p.Name)
	if !ok {
		translated, tok := r.translate(ctx, p.Name, titles)
		if !tok {
			return Result{}, false
		}
		if mbid, ok = try(translated); !ok {
			return Result{}, false
		}
		method = MethodHistoryLookupTranslated
		diag.Phase = PhaseTranslated
	}
	r.logger.Debug("history match",
		slog.String("artist", p.Name),
		slog.String("mbid", mbid),
		slog.String("track", diag.TrackUsed),
		slog.String("phase", string(diag.Phase)))
	return Result{Artist: p, MBID: mbid, Method: method, Diagnostics: diag}, true
}

// scoredSearch searches the catalog by the streaming-service name, then by
// its translation, and returns the first candidate the validator accepts.
func (r *Resolver) scoredSearch(ctx context.Context, p artist.Profile, tracks []artist.TopTrack, titles []string) (string, string) {
	var metaName string
	if meta, ok := r.lookup.ArtistMetadata(ctx, p.Link); ok && meta != nil {
		metaName = artist.CleanText(meta.Name)
	}
	primary := metaName
	if primary == "" {
		primary = p.Name
	}
	if primary == "" {
		return "", ""
	}

	names := []string{primary}
	if translated, ok := r.translate(ctx, primary, titles); ok && translated != primary {
		names = append(names, translated)
	}

	for _, name := range names {
		cands := r.lookup.SearchArtists(ctx, name)
		if len(cands) == 0 {
			continue
		}
		source := metaName
		if source == "" {
			source = name
		}
		scored := r.rank(source, cands)
		ev := Evidence{Name: source, Link: p.Link, Tracks: tracks}
		for _, sc := range scored[:r.validateCount(scored)] {
			if sc.ID == "" || sc.Score < r.tuning.MinScore {
				continue
			}
			v := r.validator.Validate(ctx, ev, sc)
			r.logger.Debug("candidate validated",
				slog.String("search_name", name),
				slog.String("mbid", sc.ID),
				slog.Int("score", sc.Score),
				slog.Bool("accepted", v.Accepted),
				slog.String("reason", v.Reason))
			if v.Accepted {
				return sc.ID, v.Reason
			}
		}
	}
	return "", ""
}

// rank scores every candidate against source, best first. Equal scores keep
// the catalog's order.
func (r *Resolver) rank(source string, cands []artist.Candidate) []artist.ScoredCandidate {
	scored := make([]artist.ScoredCandidate, len(cands))
	for i, c := range cands {
		scored[i] = artist.ScoredCandidate{Candidate: c, Score: r.scorer.Score(source, c)}
	}
	slices.SortStableFunc(scored, func(a, b artist.ScoredCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

// validateCount is how many of the ranked candidates get validated: TopN,
// widened to two when the leaders are too close to call.
func (r *Resolver) validateCount(scored []artist.ScoredCandidate) int {
	n := r.tuning.TopN
	if len(scored) >= 2 && abs(scored[0].Score-scored[1].Score) <= r.tuning.CloseDelta {
		n = max(n, 2)
	}
	return min(n, len(scored))
}

// uniqueExactName returns the only catalog artist whose name, alias or alias
// sort name equals name after strict normalization.
func (r *Resolver) uniqueExactName(ctx context.Context, name string) (string, bool) {
	target := artist.NormalizeStrict(name)
	if target == "" {
		return "", false
	}
	var match string
	for _, c := range r.lookup.ExactNameCandidates(ctx, name) {
		if c.ID == "" || !exactNameMatch(c, target) || c.ID == match {
			continue
		}
		if match != "" {
			return "", false
		}
		match = c.ID
	}
	return match, match != ""
}

func exactNameMatch(c artist.Candidate, target string) bool {
	if artist.NormalizeStrict(c.Name) == target {
		return true
	}
	for _, al := range c.Aliases {
		if artist.NormalizeStrict(al.Name) == target || artist.NormalizeStrict(al.SortName) == target {
			return true
		}
	}
	return false
}

func (r *Resolver) translate(ctx context.Context, name string, titles []string) (string, bool) {
	if r.translator == nil || name == "" || len(titles) == 0 {
		return "", false
	}
	translated, ok := r.translator.TranslatedName(ctx, name, titles)
	translated = artist.CleanText(translated)
	if !ok || translated == "" || translated == name {
		return "", false
	}
	return translated, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
