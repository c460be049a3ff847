package geo

import (
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeExtractor []Entity

func (f fakeExtractor) Extract(string) []Entity { return f }

func TestInferRoundTripsEveryCode(t *testing.T) {
	inf := NewInferencer(nil, testLogger())
	codes := Codes()
	if len(codes) < 245 {
		t.Fatalf("only %d codes loaded", len(codes))
	}
	for _, code := range codes {
		name, ok := Name(code)
		if !ok {
			t.Fatalf("Name(%s) missing", code)
		}
		got, ok := inf.Infer(name)
		if !ok || got != code {
			t.Errorf("Infer(Name(%s) = %q) = %q, %v", code, name, got, ok)
		}
	}
}

func TestInfer(t *testing.T) {
	inf := NewInferencer(NoExtractor{}, testLogger())
	tests := []struct {
		text string
		want string
	}{
		{"Belgian singer", "BE"},
		{"Belgium", "BE"},
		{"belgium", "BE"},
		{"Icelandic post-rock band from Reykjavik", "IS"},
		{"rapper based in Lagos", "NG"},
		{"jazz trio in New York", "US"},
		{"from Sweden", "SE"},
		{"South Korean boy band", "KR"},
		{"North Korean orchestra", "KP"},
		{"American rock band", "US"},
		{"British singer-songwriter", "GB"},
		{"Swedish DJ", "SE"},
		{"Côte d'Ivoire", "CI"},
		{"DEU", "DE"},
		{"FR", "FR"},
		{"Brazilian guitarist", "BR"},
	}
	for _, tt := range tests {
		got, ok := inf.Infer(tt.text)
		if !ok || got != tt.want {
			t.Errorf("Infer(%q) = %q, %v; want %q", tt.text, got, ok, tt.want)
		}
	}
}

func TestInferNoCountry(t *testing.T) {
	inf := NewInferencer(nil, testLogger())
	for _, text := range []string{"", "   ", "electronic duo", "singer", "fr"} {
		if got, ok := inf.Infer(text); ok {
			t.Errorf("Infer(%q) = %q, want no match", text, got)
		}
	}
}

func TestInferUsesExtractedEntities(t *testing.T) {
	ext := fakeExtractor{
		{Text: "Atlantis", Kind: EntityPlace},
		{Text: "Norwegian", Kind: EntityNationality},
	}
	inf := NewInferencer(ext, testLogger())
	got, ok := inf.Infer("a songwriter with strong ties to the fjords")
	if !ok || got != "NO" {
		t.Errorf("Infer with entities = %q, %v; want NO", got, ok)
	}
}

func TestInferNationalitySpanWordByWord(t *testing.T) {
	const text = "Dutch DJ and producer"
	if got, ok := NewInferencer(NoExtractor{}, testLogger()).Infer(text); ok {
		t.Fatalf("Infer without entities = %q, want no match", got)
	}
	inf := NewInferencer(fakeExtractor{{Text: "Dutch DJ", Kind: EntityNationality}}, testLogger())
	if got, ok := inf.Infer(text); !ok || got != "NL" {
		t.Errorf("Infer(%q) = %q, %v; want NL", text, got, ok)
	}

	// Short words in a span are not read as ISO codes.
	inf = NewInferencer(fakeExtractor{{Text: "Resident DJ", Kind: EntityNationality}}, testLogger())
	if got, ok := inf.Infer("resident dj at a club"); ok {
		t.Errorf("Infer = %q, want no match", got)
	}
}

func TestInferIgnoresCommonWords(t *testing.T) {
	inf := NewInferencer(nil, testLogger())
	for _, text := range []string{"singer who can dance", "a man with a plan", "fan favourite"} {
		if got, ok := inf.Infer(text); ok {
			t.Errorf("Infer(%q) = %q, want no match", text, got)
		}
	}
	if got, ok := inf.Infer("Polish rapper"); !ok || got != "PL" {
		t.Errorf("Infer(Polish rapper) = %q, %v; want PL", got, ok)
	}
}

func TestPlaceOrNationality(t *testing.T) {
	tests := []struct {
		span string
		want EntityKind
	}{
		{"Reykjavik", EntityPlace},
		{"Belgium", EntityPlace},
		{"Dutch DJ", EntityNationality},
		{"Atlantis", EntityNationality},
	}
	for _, tt := range tests {
		if got := placeOrNationality(tt.span); got != tt.want {
			t.Errorf("placeOrNationality(%q) = %v, want %v", tt.span, got, tt.want)
		}
	}
}

func TestProseExtractor(t *testing.T) {
	ext := NewProseExtractor(testLogger())
	var found bool
	for _, e := range ext.Extract("Dutch DJ and producer") {
		if e.Kind == EntityNationality && strings.Contains(e.Text, "Dutch") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a nationality entity for Dutch, got %+v", ext.Extract("Dutch DJ and producer"))
	}

	inf := NewInferencer(ext, testLogger())
	tests := []struct {
		text string
		want string
	}{
		{"Dutch DJ and producer", "NL"},
		{"Belgian singer", "BE"},
		{"French electro duo from Paris", "FR"},
	}
	for _, tt := range tests {
		if got, ok := inf.Infer(tt.text); !ok || got != tt.want {
			t.Errorf("Infer(%q) = %q, %v; want %q", tt.text, got, ok, tt.want)
		}
	}
}

func TestPlacePhrasesPrecedeEntities(t *testing.T) {
	ext := fakeExtractor{{Text: "Japan", Kind: EntityPlace}}
	inf := NewInferencer(ext, testLogger())
	got, _ := inf.Infer("producer from Toronto")
	if got != "CA" {
		t.Errorf("got %q, want CA", got)
	}
}

func TestPlacePhrases(t *testing.T) {
	got := PlacePhrases("DJ from Cape Town, later based in Berlin")
	want := []string{"Cape Town", "Berlin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PlacePhrases = %v, want %v", got, want)
	}
	if got := PlacePhrases("music from the heart"); len(got) != 0 {
		t.Errorf("lower-case run should not match: %v", got)
	}
}

func TestDemonyms(t *testing.T) {
	got := Demonyms("Finnish folk singer, Finnish and Korean")
	want := []string{"finnish", "korean"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Demonyms = %v, want %v", got, want)
	}
	got = Demonyms("North Korean orchestra")
	if len(got) == 0 || got[0] != "north korean" {
		t.Errorf("two-word nationality should come first: %v", got)
	}
}

func TestNationalityCandidates(t *testing.T) {
	got := NationalityCandidates("South Korean")
	if got[0] != "South Korea" {
		t.Errorf("South Korean candidates = %v", got)
	}
	got = NationalityCandidates("korean")
	if got[0] != "South Korea" {
		t.Errorf("korean candidates = %v", got)
	}

	got = NationalityCandidates("Belgian")
	if got[0] != "Belgian" {
		t.Errorf("first candidate should be the word itself, got %v", got)
	}
	found := false
	for _, c := range got {
		if c == "Belgia" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Belgia reconstruction in %v", got)
	}

	got = NationalityCandidates("Indonesian")
	if !contains(got, "Indonesia") {
		t.Errorf("expected Indonesia in %v", got)
	}
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

func TestGazetteerCountriesBeforeCities(t *testing.T) {
	if got, _ := Gazetteer("Georgia"); got != "GE" {
		t.Errorf("Georgia = %q, want GE", got)
	}
	if got, _ := Gazetteer("reykjavík"); got != "IS" {
		t.Errorf("reykjavík = %q, want IS", got)
	}
	if _, ok := Gazetteer("Gondor"); ok {
		t.Error("unknown place should miss")
	}
}

func TestLookup(t *testing.T) {
	if got, ok := Lookup("Germany"); !ok || got != "DE" {
		t.Errorf("Lookup(Germany) = %q, %v", got, ok)
	}
	if _, ok := Lookup("Narnia"); ok {
		t.Error("Lookup(Narnia) should miss")
	}
	if _, ok := Lookup(""); ok {
		t.Error("Lookup(empty) should miss")
	}
}

func TestLoadTableRejectsDuplicateCanonicalNames(t *testing.T) {
	rows := []byte("AA|AAA|Same|\nBB|BBB|same|\n")
	if _, err := loadTable(rows, nil); err == nil || !strings.Contains(err.Error(), "shared by") {
		t.Errorf("expected duplicate name error, got %v", err)
	}
}

func TestLoadTableRejectsUnknownCityCode(t *testing.T) {
	rows := []byte("AA|AAA|Alpha|\n")
	if _, err := loadTable(rows, []byte("Town|ZZ\n")); err == nil {
		t.Error("expected error for unknown city country")
	}
}

func TestCanonicalNamesWinOverAlternates(t *testing.T) {
	rows := []byte("AA|AAA|Alpha|Beta\nBB|BBB|Beta|\n")
	tbl, err := loadTable(rows, nil)
	if err != nil {
		t.Fatalf("loadTable: %v", err)
	}
	if got := tbl.byName["beta"]; got != "BB" {
		t.Errorf("beta = %q, want BB", got)
	}
	if got := tbl.byName["alpha"]; got != "AA" {
		t.Errorf("alpha = %q, want AA", got)
	}
}
