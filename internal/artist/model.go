package artist

import "strings"

// Profile is one artist as listed by the streaming service. Link uniquely
// identifies the artist there.
type Profile struct {
	Name string `json:"artist_name"`
	Link string `json:"spotify_link"`
}

// Key returns the dedupe key used by the output dataset.
func (p Profile) Key() Key {
	return Key{Name: CleanText(p.Name), Link: CleanText(p.Link)}
}

// Key identifies a row of the output dataset.
type Key struct {
	Name string
	Link string
}

// Metadata is the streaming-service view of an artist.
type Metadata struct {
	ExternalID string   `json:"artist_id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Followers  *int     `json:"followers,omitempty"`
	Popularity *int     `json:"popularity,omitempty"`
}

// TopTrack is one of an artist's most popular tracks, in service order.
type TopTrack struct {
	Title string `json:"name"`
	ISRC  string `json:"isrc,omitempty"`
}

// TrackTitles returns the non-empty titles of tracks, preserving order.
func TrackTitles(tracks []TopTrack) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if title := CleanText(t.Title); title != "" {
			out = append(out, title)
		}
	}
	return out
}

// Alias is an alternative catalog name for an artist.
type Alias struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Locale   string `json:"locale,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
}

// Candidate is a catalog search hit.
type Candidate struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	SortName       string  `json:"sort-name"`
	Aliases        []Alias `json:"aliases,omitempty"`
	Type           string  `json:"type,omitempty"`
	Disambiguation string  `json:"disambiguation,omitempty"`
	SearchScore    int     `json:"score"`
}

// IsGroup reports whether the catalog classifies the candidate as a group.
func (c Candidate) IsGroup() bool {
	return strings.EqualFold(c.Type, "group")
}

// ScoredCandidate is a candidate with its confidence score.
type ScoredCandidate struct {
	Candidate
	Score int `json:"match_score"`
}

// LinkedArtist is a catalog artist that declares a given external URL.
type LinkedArtist struct {
	ID   string `json:"mbid"`
	Name string `json:"name"`
}
