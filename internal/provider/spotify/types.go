package spotify

// Spotify Web API response types.

// APIArtist is the full artist object.
type APIArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   *int         `json:"popularity"`
	Followers    *Followers   `json:"followers"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Followers holds the follower count.
type Followers struct {
	Total *int `json:"total"`
}

// ExternalURLs holds the public links of an object.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// TopTracksResponse is the response of the artist top-tracks endpoint.
type TopTracksResponse struct {
	Tracks []APITrack `json:"tracks"`
}

// APITrack is a track object.
type APITrack struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Artists     []APIArtist       `json:"artists"`
	ExternalIDs map[string]string `json:"external_ids"`
}

// PlaylistTracksPage is one page of playlist items.
type PlaylistTracksPage struct {
	Items []PlaylistItem `json:"items"`
	Next  string         `json:"next"`
	Total int            `json:"total"`
}

// PlaylistItem wraps a playlist track; Track is nil for removed tracks.
type PlaylistItem struct {
	Track *APITrack `json:"track"`
}
