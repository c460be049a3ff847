package artist

import (
	"reflect"
	"testing"
)

func TestNormalizeLoose(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Sigur Rós", "sigur ros"},
		{"  Guns N' Roses ", "guns n roses"},
		{"AC/DC", "ac dc"},
		{"Beyoncé", "beyonce"},
		{"Blink-182", "blink 182"},
		{"Mötley Crüe", "motley crue"},
		{"the   weeknd", "the weeknd"},
		{"", ""},
		{"방탄소년단", ""},
	}
	for _, tt := range tests {
		if got := NormalizeLoose(tt.in); got != tt.want {
			t.Errorf("NormalizeLoose(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStrictKeepsPlus(t *testing.T) {
	if got := NormalizeStrict("Sum 41+"); got != "sum 41+" {
		t.Errorf("NormalizeStrict = %q", got)
	}
	if got := NormalizeStrict("2＋2"); got != "2+2" {
		t.Errorf("full-width plus: %q", got)
	}
}

func TestStrictTokensMapsNumberWords(t *testing.T) {
	got := StrictTokens("Blink One Eight Two")
	want := []string{"blink", "1", "8", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StrictTokens = %v, want %v", got, want)
	}
	got = StrictTokens("Maroon Five")
	if !reflect.DeepEqual(got, []string{"maroon", "5"}) {
		t.Errorf("StrictTokens(Maroon Five) = %v", got)
	}
	// Beyond twelve numbers stay spelled out.
	got = StrictTokens("Thirteen Senses")
	if !reflect.DeepEqual(got, []string{"thirteen", "senses"}) {
		t.Errorf("StrictTokens(Thirteen Senses) = %v", got)
	}
}

func TestTokenSimilarity(t *testing.T) {
	names := []string{"Sigur Rós", "The Weeknd", "Blink 182", "a", "Florence + the Machine"}
	for _, a := range names {
		if got := TokenSimilarity(a, a); got != 1.0 {
			t.Errorf("TokenSimilarity(%q, %q) = %v, want 1", a, a, got)
		}
		for _, b := range names {
			if TokenSimilarity(a, b) != TokenSimilarity(b, a) {
				t.Errorf("asymmetric similarity for %q / %q", a, b)
			}
		}
	}

	if got := TokenSimilarity("Florence and the Machine", "Florence + the Machine"); got != 0.75 {
		t.Errorf("partial overlap = %v, want 0.75", got)
	}
	if got := TokenSimilarity("", "Stromae"); got != 0 {
		t.Errorf("empty side = %v, want 0", got)
	}
	if got := TokenSimilarity("!!!", "Stromae"); got != 0 {
		t.Errorf("punctuation-only side = %v, want 0", got)
	}
}

func TestDigitAndSuffixFlags(t *testing.T) {
	if !HasDigits(StrictTokens("Sum 41")) {
		t.Error("Sum 41 should have digits")
	}
	if HasDigits(StrictTokens("Sum")) {
		t.Error("Sum should not have digits")
	}
	if !HasDigits(StrictTokens("Blink Two")) {
		t.Error("spelled-out number should count as a digit")
	}
	if !HasPlusSuffix(StrictTokens("Band 2+")) {
		t.Error("expected N+ suffix")
	}
	if HasPlusSuffix(StrictTokens("Florence + the Machine")) {
		t.Error("a lone plus is not an N+ suffix")
	}
}

func TestNormalizeTrackTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Papaoutai", "papaoutai"},
		{"Karma Police (Remastered 2017)", "karma police"},
		{"Bohemian Rhapsody - Remastered 2011", "bohemian rhapsody 2011"},
		{"Song [Live]", "song"},
		{"Alors on danse - Radio Edit", "alors on danse radio"},
		{"Track feat. Someone", "track someone"},
		{"Hoppípolla", "hoppipolla"},
	}
	for _, tt := range tests {
		if got := NormalizeTrackTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTrackTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Stromae  ", "Stromae"},
		{"None", ""},
		{"nan", ""},
		{"ＡＢＣ", "ABC"},
		{"a \t b\n c", "a b c"},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfileKey(t *testing.T) {
	p := Profile{Name: " Stromae ", Link: "https://open.spotify.com/artist/5j4HeCoUlzhfWtjAfM1acR"}
	k := p.Key()
	if k.Name != "Stromae" {
		t.Errorf("key name = %q", k.Name)
	}
}

func TestTrackTitles(t *testing.T) {
	got := TrackTitles([]TopTrack{{Title: "A"}, {Title: " "}, {Title: "None"}, {Title: "B"}})
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("TrackTitles = %v", got)
	}
}
