package musicbrainz

import "github.com/sydlexius/artistorigin/internal/artist"

// MusicBrainz API response types.

// SearchResponse is the top-level response from the artist search endpoint.
type SearchResponse struct {
	Created string     `json:"created"`
	Count   int        `json:"count"`
	Offset  int        `json:"offset"`
	Artists []MBArtist `json:"artists"`
}

// MBArtist represents a MusicBrainz artist entity.
type MBArtist struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	SortName       string       `json:"sort-name"`
	Type           string       `json:"type"`
	Disambiguation string       `json:"disambiguation"`
	Country        string       `json:"country"`
	Score          int          `json:"score"`
	Area           *MBArea      `json:"area,omitempty"`
	BeginArea      *MBArea      `json:"begin-area,omitempty"`
	Aliases        []MBAlias    `json:"aliases"`
	Relations      []MBRelation `json:"relations"`
}

// Candidate converts a search hit to the common candidate type.
func (a MBArtist) Candidate() artist.Candidate {
	c := artist.Candidate{
		ID:             a.ID,
		Name:           a.Name,
		SortName:       a.SortName,
		Type:           a.Type,
		Disambiguation: a.Disambiguation,
		SearchScore:    a.Score,
	}
	for _, al := range a.Aliases {
		c.Aliases = append(c.Aliases, artist.Alias{
			Name:     al.Name,
			SortName: al.SortName,
			Locale:   al.Locale,
			Primary:  al.Primary,
		})
	}
	return c
}

// URLResources returns the resources of all URL relations.
func (a MBArtist) URLResources() []string {
	var out []string
	for _, rel := range a.Relations {
		if rel.URL != nil && rel.URL.Resource != "" {
			out = append(out, rel.URL.Resource)
		}
	}
	return out
}

// RelatedAreaNames returns the names of areas linked through relations, in
// relation order.
func (a MBArtist) RelatedAreaNames() []string {
	var out []string
	for _, rel := range a.Relations {
		if rel.Area != nil && rel.Area.Name != "" {
			out = append(out, rel.Area.Name)
		}
	}
	return out
}

// MBArea is a geographic area (country, subdivision, city).
type MBArea struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SortName      string   `json:"sort-name"`
	Type          string   `json:"type,omitempty"`
	ISO31661Codes []string `json:"iso-3166-1-codes,omitempty"`
}

// MBAlias represents an alternative name for an artist.
type MBAlias struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Type     string `json:"type"`
	Locale   string `json:"locale"`
	Primary  bool   `json:"primary"`
}

// MBRelation represents a relationship between entities.
type MBRelation struct {
	Type       string         `json:"type"`
	TargetType string         `json:"target-type"`
	Direction  string         `json:"direction"`
	Area       *MBArea        `json:"area,omitempty"`
	URL        *MBRelationURL `json:"url,omitempty"`
}

// MBRelationURL holds URL data within a relation.
type MBRelationURL struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
}

// URLSearchResponse is the response from the URL search endpoint.
type URLSearchResponse struct {
	Count int     `json:"count"`
	URLs  []MBURL `json:"urls"`
}

// MBURL is a URL entity with the artists that declare it.
type MBURL struct {
	ID           string           `json:"id"`
	Resource     string           `json:"resource"`
	RelationList []MBRelationList `json:"relation-list"`
}

// MBRelationList groups relations by target type.
type MBRelationList struct {
	TargetType string          `json:"target-type"`
	Relations  []MBURLRelation `json:"relations"`
}

// MBURLRelation links a URL to an artist.
type MBURLRelation struct {
	Type   string    `json:"type"`
	Artist *MBArtist `json:"artist,omitempty"`
}

// RecordingSearchResponse is the response from the recording search
// endpoint. Only the counts are used.
type RecordingSearchResponse struct {
	Count          int `json:"count"`
	RecordingCount int `json:"recording-count"`
}

// Total returns the number of matching recordings.
func (r RecordingSearchResponse) Total() int {
	if r.RecordingCount > 0 {
		return r.RecordingCount
	}
	return r.Count
}
