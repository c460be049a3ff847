package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/provider"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

var isrcPattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// Adapter talks to the MusicBrainz web service.
type Adapter struct {
	client  *provider.Client
	logger  *slog.Logger
	baseURL string
}

// New creates a MusicBrainz adapter with the default base URL.
func New(client *provider.Client, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(client, logger, defaultBaseURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(client *provider.Client, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  client,
		logger:  logger.With(slog.String("provider", "musicbrainz")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the service name.
func (a *Adapter) Name() provider.ServiceName { return provider.NameMusicBrainz }

// ValidMBID reports whether id is a well-formed MusicBrainz identifier.
func ValidMBID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidISRC reports whether code has the 12-character ISRC shape.
func ValidISRC(code string) bool {
	return isrcPattern.MatchString(code)
}

// BuildArtistQuery builds the search query for a name: phrase matches on
// artist, alias and a guessed "Last, First" sort name, plus first/last token
// conjunctions for multi-word names.
func BuildArtistQuery(name string) string {
	q := quote(artist.CleanText(name))
	toks := artist.LooseTokens(name)
	if len(toks) < 2 {
		return fmt.Sprintf(`(artist:%s OR alias:%s)`, q, q)
	}
	first, last := toks[0], toks[len(toks)-1]
	sortGuess := quote(titleWord(last) + ", " + titleWord(first))
	return fmt.Sprintf(`(artist:%s OR alias:%s OR sortname:%s) OR ((artist:%s AND artist:%s) OR (alias:%s AND alias:%s))`,
		q, q, sortGuess, first, last, first, last)
}

// quote wraps s as a Lucene phrase.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SearchArtists runs one page of an artist search with aliases included.
func (a *Adapter) SearchArtists(ctx context.Context, query string, limit, offset int) ([]artist.Candidate, error) {
	params := url.Values{
		"query":  {query},
		"fmt":    {"json"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
		"inc":    {"aliases"},
	}
	var resp SearchResponse
	if err := a.getJSON(ctx, "/artist/", params, query, &resp); err != nil {
		return nil, err
	}
	out := make([]artist.Candidate, 0, len(resp.Artists))
	for _, mb := range resp.Artists {
		if mb.ID == "" {
			continue
		}
		out = append(out, mb.Candidate())
	}
	return out, nil
}

// SearchExactName searches for artists whose name matches name as a phrase.
func (a *Adapter) SearchExactName(ctx context.Context, name string, limit int) ([]artist.Candidate, error) {
	return a.SearchArtists(ctx, "artist:"+quote(artist.CleanText(name)), limit, 0)
}

// GetArtist fetches an artist with aliases, area relations and URL relations.
func (a *Adapter) GetArtist(ctx context.Context, mbid string) (*MBArtist, error) {
	if !ValidMBID(mbid) {
		return nil, &provider.ErrNotFound{Service: provider.NameMusicBrainz, ID: mbid}
	}
	params := url.Values{
		"inc": {"aliases+area-rels+url-rels"},
		"fmt": {"json"},
	}
	var mb MBArtist
	if err := a.getJSON(ctx, "/artist/"+url.PathEscape(mbid), params, mbid, &mb); err != nil {
		return nil, err
	}
	return &mb, nil
}

// LookupURL returns the artists that declare link as one of their URLs.
func (a *Adapter) LookupURL(ctx context.Context, link string) ([]artist.LinkedArtist, error) {
	params := url.Values{
		"query": {"url:" + url.QueryEscape(link)},
		"fmt":   {"json"},
	}
	var resp URLSearchResponse
	if err := a.getJSON(ctx, "/url/", params, link, &resp); err != nil {
		return nil, err
	}

	var out []artist.LinkedArtist
	for _, u := range resp.URLs {
		for _, rl := range u.RelationList {
			for _, rel := range rl.Relations {
				if rel.Artist == nil || !ValidMBID(rel.Artist.ID) {
					continue
				}
				out = append(out, artist.LinkedArtist{ID: rel.Artist.ID, Name: rel.Artist.Name})
			}
		}
	}
	return out, nil
}

// HasRecordingWithISRC reports whether the artist has a recording carrying isrc.
func (a *Adapter) HasRecordingWithISRC(ctx context.Context, mbid, isrc string) (bool, error) {
	if !ValidISRC(isrc) {
		return false, nil
	}
	return a.hasRecording(ctx, fmt.Sprintf("arid:%s AND isrc:%s", mbid, isrc))
}

// HasRecordingTitled reports whether the artist has a recording matching title.
func (a *Adapter) HasRecordingTitled(ctx context.Context, mbid, title string) (bool, error) {
	if strings.TrimSpace(title) == "" {
		return false, nil
	}
	return a.hasRecording(ctx, fmt.Sprintf("arid:%s AND recording:%s", mbid, quote(title)))
}

func (a *Adapter) hasRecording(ctx context.Context, query string) (bool, error) {
	params := url.Values{
		"query": {query},
		"fmt":   {"json"},
		"limit": {"1"},
	}
	var resp RecordingSearchResponse
	if err := a.getJSON(ctx, "/recording/", params, query, &resp); err != nil {
		return false, err
	}
	return resp.Total() > 0, nil
}

// getJSON performs a rate-limited GET and decodes a 200 response into v.
func (a *Adapter) getJSON(ctx context.Context, path string, params url.Values, id string, v any) error {
	resp, err := a.client.Get(ctx, provider.NameMusicBrainz, a.baseURL+path, params, nil)
	if err != nil {
		return err
	}
	if err := provider.CheckStatus(provider.NameMusicBrainz, id, resp); err != nil {
		a.logger.Debug("no data", slog.String("id", id), slog.Int("status", resp.StatusCode))
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", strings.Trim(path, "/"), err)
	}
	return nil
}
