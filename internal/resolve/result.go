package resolve

import "github.com/sydlexius/artistorigin/internal/artist"

// Method records which resolution path produced a result.
type Method string

// Resolution methods, in the order the resolver tries them.
const (
	MethodDirectLink              Method = "direct_link"
	MethodHistoryLookup           Method = "history_lookup"
	MethodHistoryLookupTranslated Method = "history_lookup_translated"
	MethodScoredSearch            Method = "scored_search"
	MethodUniqueExactName         Method = "unique_exact_name"
	MethodScoredSearchNoCountry   Method = "scored_search_no_country"
	MethodDirectLinkNoCountry     Method = "direct_link_no_country"
	MethodNoMatchMultipleLinks    Method = "no_match_multiple_links"
	MethodNoMatchNoLinks          Method = "no_match_no_links"
	MethodFailed                  Method = "resolution_failed"
)

// Phase identifies the history-lookup pass that produced an identifier.
type Phase string

// History-lookup phases.
const (
	PhaseOriginal   Phase = "original"
	PhaseTranslated Phase = "translated"
)

// Diagnostics describes how the history lookup went. Zero values mean the
// history lookup was not reached or found nothing.
type Diagnostics struct {
	TrackUsed   string `json:"track_used,omitempty"`
	TracksTried int    `json:"tracks_tried"`
	TotalTracks int    `json:"total_tracks_available"`
	Phase       Phase  `json:"phase_used,omitempty"`
}

// Result is the outcome of resolving one artist.
type Result struct {
	Artist  artist.Profile `json:"artist"`
	MBID    string         `json:"mbid,omitempty"`
	Country string         `json:"country,omitempty"`
	Method  Method         `json:"method"`
	// Reason is the validator verdict that accepted a scored-search
	// candidate, empty for other methods.
	Reason string `json:"reason,omitempty"`
	Diagnostics
}

// Resolved reports whether an identifier was found.
func (r Result) Resolved() bool { return r.MBID != "" }

// HasCountry reports whether a country was found.
func (r Result) HasCountry() bool { return r.Country != "" }
