package batch

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/filesystem"
	"github.com/sydlexius/artistorigin/internal/resolve"
)

// Header is the column layout of the output file.
var Header = []string{
	"artist_name",
	"spotify_link",
	"mbid",
	"country",
	"method",
	"track_used",
	"tracks_tried",
	"total_tracks_available",
	"phase_used",
}

// Row is one line of the output dataset.
type Row struct {
	ArtistName  string
	SpotifyLink string
	MBID        string
	Country     string
	Method      string
	TrackUsed   string
	TracksTried string
	TotalTracks string
	Phase       string
}

// Key returns the dedupe key of the row.
func (r Row) Key() artist.Key {
	return artist.Profile{Name: r.ArtistName, Link: r.SpotifyLink}.Key()
}

// RowFromResult converts a resolution result to a dataset row. History
// diagnostics are only written for history results.
func RowFromResult(res resolve.Result) Row {
	row := Row{
		ArtistName:  res.Artist.Name,
		SpotifyLink: res.Artist.Link,
		MBID:        res.MBID,
		Country:     res.Country,
		Method:      string(res.Method),
	}
	if res.Phase != "" {
		row.TrackUsed = res.TrackUsed
		row.TracksTried = strconv.Itoa(res.TracksTried)
		row.TotalTracks = strconv.Itoa(res.TotalTracks)
		row.Phase = string(res.Phase)
	}
	return row
}

func (r Row) record() []string {
	return []string{r.ArtistName, r.SpotifyLink, r.MBID, r.Country, r.Method, r.TrackUsed, r.TracksTried, r.TotalTracks, r.Phase}
}

// Dataset is the in-memory copy of the output file. It is not safe for
// concurrent use; the coordinator owns it.
type Dataset struct {
	rows  []Row
	index map[artist.Key]int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[artist.Key]int)}
}

// LoadDataset reads the dataset at path. A missing file yields an empty
// dataset. Columns are matched by header name so older files with fewer
// columns still load.
func LoadDataset(path string) (*Dataset, error) {
	ds := NewDataset()
	f, err := os.Open(path) //nolint:gosec // G304: path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return ds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return ds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	if _, ok := cols["artist_name"]; !ok {
		return nil, fmt.Errorf("dataset %s has no artist_name column", path)
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset line %d: %w", line, err)
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		ds.Merge(Row{
			ArtistName:  field("artist_name"),
			SpotifyLink: field("spotify_link"),
			MBID:        field("mbid"),
			Country:     field("country"),
			Method:      field("method"),
			TrackUsed:   field("track_used"),
			TracksTried: field("tracks_tried"),
			TotalTracks: field("total_tracks_available"),
			Phase:       field("phase_used"),
		})
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the rows in file order.
func (d *Dataset) Rows() []Row { return d.rows }

// Has reports whether a row exists for key.
func (d *Dataset) Has(key artist.Key) bool {
	_, ok := d.index[key]
	return ok
}

// Merge adds rows, replacing any existing row with the same key in place.
func (d *Dataset) Merge(rows ...Row) {
	for _, row := range rows {
		key := row.Key()
		if i, ok := d.index[key]; ok {
			d.rows[i] = row
			continue
		}
		d.index[key] = len(d.rows)
		d.rows = append(d.rows, row)
	}
}

// sortFrom orders the rows at positions from and later by rank, keeping
// earlier rows where they are. Rows missing from rank sort last.
func (d *Dataset) sortFrom(from int, rank map[artist.Key]int) {
	if from >= len(d.rows) {
		return
	}
	pos := func(r Row) int {
		if i, ok := rank[r.Key()]; ok {
			return i
		}
		return len(rank)
	}
	tail := d.rows[from:]
	slices.SortStableFunc(tail, func(a, b Row) int { return cmp.Compare(pos(a), pos(b)) })
	for i, row := range tail {
		d.index[row.Key()] = from + i
	}
}

// Save atomically rewrites the dataset at path.
func (d *Dataset) Save(path string) error {
	return filesystem.WriteAtomic(path, 0o644, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return err
		}
		for _, row := range d.rows {
			if err := cw.Write(row.record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
