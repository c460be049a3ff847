package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/provider"
)

const (
	defaultAPIURL   = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	topTracksMarket = "US"
	playlistPage    = 100
)

var artistIDPattern = regexp.MustCompile(`spotify\.com/artist/([a-zA-Z0-9]{22})`)

// ArtistID extracts the 22-character artist id from a profile link.
func ArtistID(link string) (string, bool) {
	m := artistIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PlaylistID extracts the playlist id from a playlist URL, URI or bare id.
func PlaylistID(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "playlist/"); i >= 0 {
		ref = ref[i+len("playlist/"):]
	} else if i := strings.LastIndex(ref, "playlist:"); i >= 0 {
		ref = ref[i+len("playlist:"):]
	}
	if i := strings.IndexAny(ref, "?#/"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

// Credentials are the client-credentials pair of a registered application.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Adapter talks to the Spotify Web API using the client-credentials flow.
type Adapter struct {
	client  *provider.Client
	oauth   *clientcredentials.Config
	logger  *slog.Logger
	baseURL string
}

// New creates a Spotify adapter against the public endpoints.
func New(ctx context.Context, creds Credentials, limiter *provider.RateLimiterMap, userAgent string, logger *slog.Logger) *Adapter {
	return NewWithURLs(ctx, creds, limiter, userAgent, logger, defaultAPIURL, defaultTokenURL)
}

// NewWithURLs creates a Spotify adapter with custom API and token URLs (for testing).
func NewWithURLs(ctx context.Context, creds Credentials, limiter *provider.RateLimiterMap, userAgent string, logger *slog.Logger, apiURL, tokenURL string, opts ...provider.ClientOption) *Adapter {
	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
	}
	return &Adapter{
		client:  provider.NewClient(limiter, userAgent, logger, append([]provider.ClientOption{provider.WithHTTPClient(cfg.Client(ctx))}, opts...)...),
		oauth:   cfg,
		logger:  logger.With(slog.String("provider", "spotify")),
		baseURL: strings.TrimRight(apiURL, "/"),
	}
}

// Name returns the service name.
func (a *Adapter) Name() provider.ServiceName { return provider.NameSpotify }

// Verify fetches an access token. Rejected or missing credentials are
// reported as *provider.ErrAuthRequired.
func (a *Adapter) Verify(ctx context.Context) error {
	if a.oauth.ClientID == "" || a.oauth.ClientSecret == "" {
		return &provider.ErrAuthRequired{Service: provider.NameSpotify}
	}
	if _, err := a.oauth.Token(ctx); err != nil {
		return a.mapError(err)
	}
	return nil
}

// ArtistMetadata fetches the artist behind a profile link.
func (a *Adapter) ArtistMetadata(ctx context.Context, link string) (*artist.Metadata, error) {
	id, ok := ArtistID(link)
	if !ok {
		return nil, &provider.ErrNotFound{Service: provider.NameSpotify, ID: link}
	}
	var ar APIArtist
	if err := a.getJSON(ctx, a.baseURL+"/artists/"+id, nil, id, &ar); err != nil {
		return nil, err
	}
	meta := &artist.Metadata{
		ExternalID: id,
		Name:       artist.CleanText(ar.Name),
		Genres:     ar.Genres,
		Popularity: ar.Popularity,
	}
	if ar.Followers != nil {
		meta.Followers = ar.Followers.Total
	}
	return meta, nil
}

// TopTracks returns the artist's top tracks in service order, with ISRCs
// where the service provides them.
func (a *Adapter) TopTracks(ctx context.Context, link string) ([]artist.TopTrack, error) {
	id, ok := ArtistID(link)
	if !ok {
		return nil, &provider.ErrNotFound{Service: provider.NameSpotify, ID: link}
	}
	var resp TopTracksResponse
	params := url.Values{"market": {topTracksMarket}}
	if err := a.getJSON(ctx, a.baseURL+"/artists/"+id+"/top-tracks", params, id, &resp); err != nil {
		return nil, err
	}
	out := make([]artist.TopTrack, 0, len(resp.Tracks))
	for _, tr := range resp.Tracks {
		name := artist.CleanText(tr.Name)
		if name == "" {
			continue
		}
		out = append(out, artist.TopTrack{
			Title: name,
			ISRC:  strings.ToUpper(strings.TrimSpace(tr.ExternalIDs["isrc"])),
		})
	}
	return out, nil
}

// PlaylistArtists lists the unique first-credited artists of a playlist,
// sorted case-insensitively by name.
func (a *Adapter) PlaylistArtists(ctx context.Context, playlistRef string) ([]artist.Profile, error) {
	id := PlaylistID(playlistRef)
	if id == "" {
		return nil, fmt.Errorf("empty playlist reference")
	}

	seen := make(map[string]bool)
	var out []artist.Profile

	next := a.baseURL + "/playlists/" + url.PathEscape(id) + "/tracks"
	params := url.Values{"limit": {fmt.Sprint(playlistPage)}}
	for next != "" {
		var page PlaylistTracksPage
		if err := a.getJSON(ctx, next, params, id, &page); err != nil {
			return nil, fmt.Errorf("fetching playlist %s: %w", id, err)
		}
		for _, item := range page.Items {
			if item.Track == nil || len(item.Track.Artists) == 0 {
				continue
			}
			first := item.Track.Artists[0]
			if first.ID == "" || seen[first.ID] {
				continue
			}
			seen[first.ID] = true
			link := first.ExternalURLs.Spotify
			if link == "" {
				link = "https://open.spotify.com/artist/" + first.ID
			}
			out = append(out, artist.Profile{Name: artist.CleanText(first.Name), Link: link})
		}
		// The next URL already carries its query.
		next, params = page.Next, nil
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	a.logger.Info("fetched playlist artists", slog.String("playlist", id), slog.Int("artists", len(out)))
	return out, nil
}

func (a *Adapter) getJSON(ctx context.Context, rawURL string, params url.Values, id string, v any) error {
	resp, err := a.client.Get(ctx, provider.NameSpotify, rawURL, params, nil)
	if err != nil {
		return a.mapError(err)
	}
	if err := provider.CheckStatus(provider.NameSpotify, id, resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("parsing spotify response: %w", err)
	}
	return nil
}

// mapError turns token endpoint rejections into *provider.ErrAuthRequired.
func (a *Adapter) mapError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return &provider.ErrAuthRequired{Service: provider.NameSpotify, Cause: err}
	}
	return err
}
