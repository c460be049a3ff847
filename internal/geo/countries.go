package geo

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/biter777/countries"

	"github.com/sydlexius/artistorigin/internal/artist"
)

//go:embed data/countries.psv
var countriesData []byte

//go:embed data/cities.psv
var citiesData []byte

var iso2Pattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Country is one row of the embedded ISO 3166-1 table.
type Country struct {
	Alpha2 string
	Alpha3 string
	Name   string
	Alt    []string
}

type table struct {
	byCode   map[string]Country
	byAlpha3 map[string]string
	// byName holds canonical names and alternates; canonical names win.
	byName map[string]string
	// countryNames holds canonical names only, for the gazetteer.
	countryNames map[string]string
	cities       map[string]string
}

var defaultTable = mustLoadTable()

func mustLoadTable() *table {
	t, err := loadTable(countriesData, citiesData)
	if err != nil {
		panic(fmt.Sprintf("geo: loading embedded country data: %v", err))
	}
	return t
}

func loadTable(countryRows, cityRows []byte) (*table, error) {
	t := &table{
		byCode:       make(map[string]Country),
		byAlpha3:     make(map[string]string),
		byName:       make(map[string]string),
		countryNames: make(map[string]string),
		cities:       make(map[string]string),
	}

	err := eachRow(countryRows, 4, func(f []string) error {
		c := Country{Alpha2: f[0], Alpha3: f[1], Name: f[2]}
		if !iso2Pattern.MatchString(c.Alpha2) {
			return fmt.Errorf("invalid alpha-2 code %q", c.Alpha2)
		}
		if _, dup := t.byCode[c.Alpha2]; dup {
			return fmt.Errorf("duplicate code %s", c.Alpha2)
		}
		key := placeKey(c.Name)
		if prev, dup := t.countryNames[key]; dup {
			return fmt.Errorf("canonical name %q shared by %s and %s", c.Name, prev, c.Alpha2)
		}
		for _, a := range strings.Split(f[3], ";") {
			if a = strings.TrimSpace(a); a != "" {
				c.Alt = append(c.Alt, a)
			}
		}
		t.byCode[c.Alpha2] = c
		t.byAlpha3[c.Alpha3] = c.Alpha2
		t.countryNames[key] = c.Alpha2
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Alternates first in code order, then canonical names override them.
	codes := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		for _, a := range t.byCode[code].Alt {
			k := placeKey(a)
			if _, taken := t.byName[k]; k != "" && !taken {
				t.byName[k] = code
			}
		}
	}
	for k, code := range t.countryNames {
		t.byName[k] = code
	}

	err = eachRow(cityRows, 2, func(f []string) error {
		if _, ok := t.byCode[f[1]]; !ok {
			return fmt.Errorf("city %q references unknown code %s", f[0], f[1])
		}
		k := placeKey(f[0])
		if _, taken := t.cities[k]; !taken {
			t.cities[k] = f[1]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// eachRow calls fn for every non-comment, pipe-separated row of data.
func eachRow(data []byte, fields int, fn func([]string) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		row := strings.TrimSpace(sc.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		f := strings.Split(row, "|")
		if len(f) != fields {
			return fmt.Errorf("line %d: expected %d fields, got %d", line, fields, len(f))
		}
		for i := range f {
			f[i] = strings.TrimSpace(f[i])
		}
		if err := fn(f); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// placeKey is the comparison form of a place or country name.
func placeKey(s string) string {
	return artist.NormalizeLoose(s)
}

// Codes returns every known alpha-2 code in ascending order.
func Codes() []string {
	out := make([]string, 0, len(defaultTable.byCode))
	for code := range defaultTable.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Name returns the canonical English name for an alpha-2 code.
func Name(code string) (string, bool) {
	c, ok := defaultTable.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c.Name, ok
}

// Convert maps a country name, alternate name, demonym or (upper-case) ISO
// code to its alpha-2 code. The whole text must name the country.
func Convert(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	if t == strings.ToUpper(t) {
		switch len(t) {
		case 2:
			if _, ok := defaultTable.byCode[t]; ok {
				return t, true
			}
		case 3:
			if code, ok := defaultTable.byAlpha3[t]; ok {
				return code, true
			}
		}
	}
	code, ok := defaultTable.byName[placeKey(t)]
	return code, ok
}

// Gazetteer resolves a place name to a country code, trying country names
// before city names.
func Gazetteer(place string) (string, bool) {
	k := placeKey(place)
	if k == "" {
		return "", false
	}
	if code, ok := defaultTable.countryNames[k]; ok {
		return code, true
	}
	code, ok := defaultTable.cities[k]
	return code, ok
}

// Lookup resolves name through the countries library, which accepts
// official names, common names and ISO codes in any case.
func Lookup(name string) (string, bool) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", false
	}
	cc := countries.ByName(n)
	if cc == countries.Unknown {
		return "", false
	}
	code := cc.Alpha2()
	if !iso2Pattern.MatchString(code) {
		return "", false
	}
	return code, true
}
