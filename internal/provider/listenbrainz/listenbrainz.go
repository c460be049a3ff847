package listenbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sydlexius/artistorigin/internal/provider"
)

const defaultBaseURL = "https://api.listenbrainz.org"

// LookupResponse is the response of the metadata lookup endpoint.
type LookupResponse struct {
	ArtistCreditName string     `json:"artist_credit_name"`
	ArtistMBIDs      []string   `json:"artist_mbids"`
	RecordingMBID    string     `json:"recording_mbid"`
	RecordingName    string     `json:"recording_name"`
	Recording        *Recording `json:"recording,omitempty"`
}

// Recording is the optional recording metadata block.
type Recording struct {
	ArtistCredit []ArtistCredit `json:"artist-credit"`
}

// ArtistCredit is one credited artist.
type ArtistCredit struct {
	Artist *CreditedArtist `json:"artist,omitempty"`
}

// CreditedArtist identifies a credited artist.
type CreditedArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FirstArtistMBID returns the first artist id in the response, preferring the
// top-level list over the recording's artist credits.
func (r LookupResponse) FirstArtistMBID() string {
	for _, id := range r.ArtistMBIDs {
		if id != "" {
			return id
		}
	}
	if r.Recording != nil {
		for _, ac := range r.Recording.ArtistCredit {
			if ac.Artist != nil && ac.Artist.ID != "" {
				return ac.Artist.ID
			}
		}
	}
	return ""
}

// Adapter talks to the ListenBrainz metadata API.
type Adapter struct {
	client  *provider.Client
	logger  *slog.Logger
	baseURL string
	token   string
}

// New creates a ListenBrainz adapter with the default base URL.
func New(client *provider.Client, token string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(client, token, logger, defaultBaseURL)
}

// NewWithBaseURL creates a ListenBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(client *provider.Client, token string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  client,
		logger:  logger.With(slog.String("provider", "listenbrainz")),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Name returns the service name.
func (a *Adapter) Name() provider.ServiceName { return provider.NameListenBrainz }

// LookupArtist maps an (artist, track) pair to the catalog id of the artist.
// An empty string with a nil error means the service has no match.
func (a *Adapter) LookupArtist(ctx context.Context, artistName, trackName string) (string, error) {
	params := url.Values{
		"artist_name":    {artistName},
		"recording_name": {trackName},
		"metadata":       {"true"},
	}
	header := http.Header{}
	if a.token != "" {
		header.Set("Authorization", "Token "+a.token)
	}

	resp, err := a.client.Get(ctx, provider.NameListenBrainz, a.baseURL+"/1/metadata/lookup/", params, header)
	if err != nil {
		return "", err
	}
	id := artistName + " / " + trackName
	if err := provider.CheckStatus(provider.NameListenBrainz, id, resp); err != nil {
		if provider.IsNotFound(err) {
			a.logger.Debug("no match", slog.String("artist", artistName), slog.String("track", trackName))
			return "", nil
		}
		return "", err
	}

	body := strings.TrimSpace(string(resp.Body))
	if body == "" || body == "{}" || body == "null" {
		return "", nil
	}
	var lr LookupResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return "", fmt.Errorf("parsing lookup response: %w", err)
	}
	return lr.FirstArtistMBID(), nil
}
