package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/provider/musicbrainz"
)

// Corroboration limits.
const (
	maxCorroborationTracks = 2
	shortNameTokens        = 2
	shortNameOverlap       = 0.80
	longNameOverlap        = 0.60
)

// Corroborator answers the catalog questions used to confirm a candidate.
type Corroborator interface {
	HasProfileLink(ctx context.Context, mbid, link string) bool
	HasRecordingWithISRC(ctx context.Context, mbid, isrc string) bool
	HasRecordingTitled(ctx context.Context, mbid, title string) bool
}

// Verdict is the outcome of validating one candidate. Reason is a short
// machine-readable tag in both the accepted and rejected case.
type Verdict struct {
	Accepted bool
	Reason   string
}

// Evidence is what the streaming service knows about the artist being
// resolved.
type Evidence struct {
	Name   string
	Link   string
	Tracks []artist.TopTrack
}

// Validator applies the name gate and catalog corroboration to a scored
// candidate.
type Validator struct {
	catalog Corroborator
	urlGate int
}

// NewValidator creates a Validator. Candidates scoring below urlGate skip the
// profile-link check.
func NewValidator(catalog Corroborator, urlGate int) *Validator {
	return &Validator{catalog: catalog, urlGate: urlGate}
}

// Validate decides whether cand is the artist described by ev. The name gate
// runs before any catalog request.
func (v *Validator) Validate(ctx context.Context, ev Evidence, cand artist.ScoredCandidate) Verdict {
	name := artist.CleanText(ev.Name)
	if name == "" {
		return Verdict{Reason: "no_spotify_name"}
	}
	if ok, reason := NameGate(name, cand.Candidate); !ok {
		return Verdict{Reason: "name_gate_failed_" + reason}
	}

	mbid := cand.ID
	if cand.Score >= v.urlGate && v.catalog.HasProfileLink(ctx, mbid, ev.Link) {
		return Verdict{Accepted: true, Reason: "spotify_url_relation"}
	}

	isrcHits := 0
	for _, isrc := range validISRCs(ev.Tracks, maxCorroborationTracks) {
		if v.catalog.HasRecordingWithISRC(ctx, mbid, isrc) {
			isrcHits++
		}
	}
	if isrcHits >= 1 {
		return Verdict{Accepted: true, Reason: fmt.Sprintf("isrc_match_%d", isrcHits)}
	}

	// Single-word names collide often, so they need both titles.
	required := 1
	if len(artist.LooseTokens(name)) <= 1 {
		required = 2
	}
	titleHits := 0
	for _, title := range comparableTitles(ev.Tracks, maxCorroborationTracks) {
		if v.catalog.HasRecordingTitled(ctx, mbid, title) {
			titleHits++
		}
	}
	if titleHits >= required {
		return Verdict{Accepted: true, Reason: fmt.Sprintf("title_match_%d_req_%d", titleHits, required)}
	}
	return Verdict{Reason: fmt.Sprintf("no_corroboration_title_%d_isrc_%d_req_%d", titleHits, isrcHits, required)}
}

// NameGate is the cheap first check: the candidate must share enough strict
// tokens with sourceName. Digits and "N+" suffixes in the source must appear
// in the matching variant.
func NameGate(sourceName string, c artist.Candidate) (bool, string) {
	srcToks := artist.StrictTokens(sourceName)
	if len(srcToks) == 0 {
		return false, "empty_spotify_tokens"
	}

	variants, _ := nameVariants(c)
	joined := strings.Join(srcToks, " ")
	for _, v := range variants {
		if strings.Join(artist.StrictTokens(v), " ") == joined {
			return true, "exact_strict"
		}
	}

	needDigits := artist.HasDigits(srcToks)
	needPlus := artist.HasPlusSuffix(srcToks)
	srcSet := artist.TokenSet(srcToks)
	best := 0.0
	for _, v := range variants {
		vToks := artist.StrictTokens(v)
		if len(vToks) == 0 {
			continue
		}
		if needDigits && !artist.HasDigits(vToks) {
			continue
		}
		if needPlus && !artist.HasPlusSuffix(vToks) {
			continue
		}
		best = max(best, artist.Jaccard(srcSet, artist.TokenSet(vToks)))
	}

	if len(srcToks) <= shortNameTokens {
		if best >= shortNameOverlap {
			return true, fmt.Sprintf("short_name_overlap_%.2f", best)
		}
		return false, fmt.Sprintf("short_name_overlap_low_%.2f", best)
	}
	if best >= longNameOverlap {
		return true, fmt.Sprintf("overlap_%.2f", best)
	}
	return false, fmt.Sprintf("overlap_low_%.2f", best)
}

// validISRCs returns up to limit well-formed ISRCs from tracks, upper-cased.
func validISRCs(tracks []artist.TopTrack, limit int) []string {
	var out []string
	for _, t := range tracks {
		isrc := strings.ToUpper(strings.TrimSpace(t.ISRC))
		if !musicbrainz.ValidISRC(isrc) {
			continue
		}
		out = append(out, isrc)
		if len(out) == limit {
			break
		}
	}
	return out
}

// comparableTitles returns the first limit non-empty titles, dropping any
// that normalize to nothing.
func comparableTitles(tracks []artist.TopTrack, limit int) []string {
	titles := artist.TrackTitles(tracks)
	if len(titles) > limit {
		titles = titles[:limit]
	}
	out := titles[:0:0]
	for _, t := range titles {
		if artist.NormalizeTrackTitle(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
