package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/cache"
	"github.com/sydlexius/artistorigin/internal/geo"
	"github.com/sydlexius/artistorigin/internal/provider"
	"github.com/sydlexius/artistorigin/internal/provider/musicbrainz"
	"github.com/sydlexius/artistorigin/internal/provider/spotify"
)

// Search paging and result sizes.
const (
	SearchPageSize  = 25
	SearchMaxPages  = 4
	SearchStopScore = 95
	ExactNameLimit  = 15
)

var iso2Pattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Catalog is the canonical music catalog.
type Catalog interface {
	SearchArtists(ctx context.Context, query string, limit, offset int) ([]artist.Candidate, error)
	SearchExactName(ctx context.Context, name string, limit int) ([]artist.Candidate, error)
	GetArtist(ctx context.Context, mbid string) (*musicbrainz.MBArtist, error)
	LookupURL(ctx context.Context, link string) ([]artist.LinkedArtist, error)
	HasRecordingWithISRC(ctx context.Context, mbid, isrc string) (bool, error)
	HasRecordingTitled(ctx context.Context, mbid, title string) (bool, error)
}

// History maps listened tracks to catalog artist ids.
type History interface {
	LookupArtist(ctx context.Context, artistName, trackName string) (string, error)
}

// Streaming is the streaming service the artists come from.
type Streaming interface {
	ArtistMetadata(ctx context.Context, link string) (*artist.Metadata, error)
	TopTracks(ctx context.Context, link string) ([]artist.TopTrack, error)
}

// CountryInferrer extracts a country code from free text.
type CountryInferrer interface {
	Infer(text string) (string, bool)
}

// Service is the cached view of every external lookup. Each cache key is a
// pure function of the call's inputs, so a warm cache answers without any
// network traffic. Definitive answers (including "nothing found") are
// cached; transient failures are not.
type Service struct {
	store     *cache.Store
	catalog   Catalog
	history   History
	streaming Streaming
	geo       CountryInferrer
	logger    *slog.Logger
}

// New creates a Service.
func New(store *cache.Store, catalog Catalog, history History, streaming Streaming, inferrer CountryInferrer, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		catalog:   catalog,
		history:   history,
		streaming: streaming,
		geo:       inferrer,
		logger:    logger.With(slog.String("component", "lookup")),
	}
}

// cacheable reports whether the outcome of a call may be cached.
func cacheable(err error) bool {
	return err == nil || provider.IsNotFound(err)
}

func (s *Service) logFailure(op string, err error, attrs ...any) {
	args := append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)
	if provider.IsNotFound(err) {
		s.logger.Debug("no data", args...)
		return
	}
	s.logger.Warn("lookup failed", args...)
}

// ArtistMetadata returns the streaming-service metadata of the profile.
func (s *Service) ArtistMetadata(ctx context.Context, link string) (*artist.Metadata, bool) {
	id, ok := spotify.ArtistID(link)
	if !ok {
		return nil, false
	}
	key := "spotify_artist_meta_" + id
	if meta, hit := cache.GetJSON[*artist.Metadata](ctx, s.store, key); hit {
		return meta, meta != nil
	}
	meta, err := s.streaming.ArtistMetadata(ctx, link)
	if err != nil {
		s.logFailure("artist_metadata", err, slog.String("link", link))
		if cacheable(err) {
			cache.SetJSON[*artist.Metadata](s.store, key, nil)
		}
		return nil, false
	}
	cache.SetJSON(s.store, key, meta)
	return meta, true
}

// TopTracks returns the profile's top tracks in service order.
func (s *Service) TopTracks(ctx context.Context, link string) []artist.TopTrack {
	id, ok := spotify.ArtistID(link)
	if !ok {
		return nil
	}
	key := "spotify_top_tracks_" + id
	if tracks, hit := cache.GetJSON[[]artist.TopTrack](ctx, s.store, key); hit {
		return tracks
	}
	tracks, err := s.streaming.TopTracks(ctx, link)
	if err != nil {
		s.logFailure("top_tracks", err, slog.String("link", link))
		if !cacheable(err) {
			return nil
		}
		tracks = []artist.TopTrack{}
	}
	cache.SetJSON(s.store, key, tracks)
	return tracks
}

// ArtistsByURL returns the catalog artists that declare link.
func (s *Service) ArtistsByURL(ctx context.Context, link string) []artist.LinkedArtist {
	key := "mb_url_" + link
	if linked, hit := cache.GetJSON[[]artist.LinkedArtist](ctx, s.store, key); hit {
		return linked
	}
	linked, err := s.catalog.LookupURL(ctx, link)
	if err != nil {
		s.logFailure("url_lookup", err, slog.String("link", link))
		if !cacheable(err) {
			return nil
		}
		linked = []artist.LinkedArtist{}
	}
	cache.SetJSON(s.store, key, linked)
	return linked
}

// SearchArtists runs the paged name search: pages of SearchPageSize, at most
// SearchMaxPages, stopping early on an empty page or on any hit scoring at
// least SearchStopScore.
func (s *Service) SearchArtists(ctx context.Context, name string) []artist.Candidate {
	q := artist.CleanText(name)
	if q == "" {
		return nil
	}
	query := musicbrainz.BuildArtistQuery(q)

	var all []artist.Candidate
	for page := 0; page < SearchMaxPages; page++ {
		offset := page * SearchPageSize
		key := fmt.Sprintf("mb_search_%s_%d_%d", q, SearchPageSize, offset)
		hits, ok := cache.GetJSON[[]artist.Candidate](ctx, s.store, key)
		if !ok {
			var err error
			hits, err = s.catalog.SearchArtists(ctx, query, SearchPageSize, offset)
			if err != nil {
				s.logFailure("search", err, slog.String("name", q), slog.Int("offset", offset))
				if !cacheable(err) {
					break
				}
				hits = []artist.Candidate{}
			}
			cache.SetJSON(s.store, key, hits)
		}
		if len(hits) == 0 {
			break
		}
		all = append(all, hits...)
		if anyScoreAtLeast(hits, SearchStopScore) {
			break
		}
	}
	return all
}

func anyScoreAtLeast(cands []artist.Candidate, score int) bool {
	for _, c := range cands {
		if c.SearchScore >= score {
			return true
		}
	}
	return false
}

// ExactNameCandidates returns the phrase-search hits for name.
func (s *Service) ExactNameCandidates(ctx context.Context, name string) []artist.Candidate {
	q := artist.CleanText(name)
	if q == "" {
		return nil
	}
	key := fmt.Sprintf("mb_exact_%s_%d", q, ExactNameLimit)
	if hits, ok := cache.GetJSON[[]artist.Candidate](ctx, s.store, key); ok {
		return hits
	}
	hits, err := s.catalog.SearchExactName(ctx, q, ExactNameLimit)
	if err != nil {
		s.logFailure("exact_search", err, slog.String("name", q))
		if !cacheable(err) {
			return nil
		}
		hits = []artist.Candidate{}
	}
	cache.SetJSON(s.store, key, hits)
	return hits
}

// Artist returns the full catalog entry. The error is non-nil only for
// transient failures, so callers can tell "no such artist" from "try later".
func (s *Service) Artist(ctx context.Context, mbid string) (*musicbrainz.MBArtist, error) {
	key := "mb_artist_" + mbid
	if mb, hit := cache.GetJSON[*musicbrainz.MBArtist](ctx, s.store, key); hit {
		return mb, nil
	}
	mb, err := s.catalog.GetArtist(ctx, mbid)
	if err != nil {
		s.logFailure("artist", err, slog.String("mbid", mbid))
		if !cacheable(err) {
			return nil, err
		}
		mb = nil
	}
	cache.SetJSON(s.store, key, mb)
	return mb, nil
}

// Country returns the country of a catalog artist: the structured country
// field, then country inference over the disambiguation, the begin and main
// areas, and finally related areas. "No country" is cached only once the
// artist itself was fetched successfully.
func (s *Service) Country(ctx context.Context, mbid string) (string, bool) {
	if !musicbrainz.ValidMBID(mbid) {
		return "", false
	}
	key := "country_" + mbid
	if code, hit := cache.GetJSON[*string](ctx, s.store, key); hit {
		if code == nil {
			return "", false
		}
		return *code, true
	}

	mb, err := s.Artist(ctx, mbid)
	if err != nil {
		return "", false
	}
	code, ok := s.countryOf(mb)
	if !ok {
		cache.SetJSON[*string](s.store, key, nil)
		return "", false
	}
	cache.SetJSON(s.store, key, &code)
	return code, true
}

func (s *Service) countryOf(mb *musicbrainz.MBArtist) (string, bool) {
	if mb == nil {
		return "", false
	}
	if c := strings.TrimSpace(mb.Country); iso2Pattern.MatchString(c) {
		return c, true
	}
	if d := artist.CleanText(mb.Disambiguation); d != "" {
		if code, ok := s.geo.Infer(d); ok {
			return code, true
		}
	}
	for _, area := range []*musicbrainz.MBArea{mb.BeginArea, mb.Area} {
		if area == nil {
			continue
		}
		if code, ok := s.placeCountry(area.Name); ok {
			return code, true
		}
		for _, c := range area.ISO31661Codes {
			if iso2Pattern.MatchString(c) {
				return c, true
			}
		}
	}
	for _, name := range mb.RelatedAreaNames() {
		if code, ok := s.placeCountry(name); ok {
			return code, true
		}
	}
	return "", false
}

// placeCountry resolves an area name, which may be a country, a city or a
// free-form place.
func (s *Service) placeCountry(name string) (string, bool) {
	name = artist.CleanText(name)
	if name == "" {
		return "", false
	}
	if code, ok := s.geo.Infer(name); ok {
		return code, true
	}
	if code, ok := geo.Gazetteer(name); ok {
		return code, true
	}
	return geo.Lookup(name)
}

// HasProfileLink reports whether the catalog artist declares the streaming
// profile among its URL relations.
func (s *Service) HasProfileLink(ctx context.Context, mbid, link string) bool {
	id, ok := spotify.ArtistID(link)
	if !ok {
		return false
	}
	mb, err := s.Artist(ctx, mbid)
	if err != nil || mb == nil {
		return false
	}
	web := "open.spotify.com/artist/" + id
	uri := "spotify:artist:" + id
	for _, u := range mb.URLResources() {
		if strings.Contains(u, web) || strings.Contains(u, uri) {
			return true
		}
	}
	return false
}

// HasRecordingWithISRC reports whether the artist has a recording with isrc.
func (s *Service) HasRecordingWithISRC(ctx context.Context, mbid, isrc string) bool {
	isrc = strings.ToUpper(strings.TrimSpace(isrc))
	if !musicbrainz.ValidISRC(isrc) {
		return false
	}
	return s.cachedBool(ctx, "mb_rec_isrc_"+mbid+"_"+isrc, func() (bool, error) {
		return s.catalog.HasRecordingWithISRC(ctx, mbid, isrc)
	})
}

// HasRecordingTitled reports whether the artist has a recording matching the
// track title.
func (s *Service) HasRecordingTitled(ctx context.Context, mbid, title string) bool {
	norm := artist.NormalizeTrackTitle(title)
	if norm == "" {
		return false
	}
	return s.cachedBool(ctx, "mb_rec_title_"+mbid+"_"+norm, func() (bool, error) {
		return s.catalog.HasRecordingTitled(ctx, mbid, title)
	})
}

func (s *Service) cachedBool(ctx context.Context, key string, fetch func() (bool, error)) bool {
	if v, hit := cache.GetJSON[bool](ctx, s.store, key); hit {
		return v
	}
	v, err := fetch()
	if err != nil {
		s.logFailure("recording", err, slog.String("key", key))
		if !cacheable(err) {
			return false
		}
		v = false
	}
	cache.SetJSON(s.store, key, v)
	return v
}

// historyKey length-prefixes the artist so no two (artist, track) pairs
// share a key.
func historyKey(artistName, track string) string {
	return fmt.Sprintf("lb_lookup_%d_%s_%s", len(artistName), artistName, track)
}

// HistoryArtist maps (artist, track) to a catalog artist id through the
// listening-history service.
func (s *Service) HistoryArtist(ctx context.Context, artistName, track string) (string, bool) {
	if artistName == "" || track == "" {
		return "", false
	}
	key := historyKey(artistName, track)
	if id, hit := cache.GetJSON[string](ctx, s.store, key); hit {
		return id, id != ""
	}
	id, err := s.history.LookupArtist(ctx, artistName, track)
	if err != nil {
		s.logFailure("history", err, slog.String("artist", artistName), slog.String("track", track))
		if !cacheable(err) {
			return "", false
		}
		id = ""
	}
	if !musicbrainz.ValidMBID(id) {
		id = ""
	}
	cache.SetJSON(s.store, key, id)
	return id, id != ""
}
