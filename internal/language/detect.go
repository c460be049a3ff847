package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// Detector identifies the language of a short text as an ISO 639-1 code.
type Detector interface {
	Detect(text string) (string, bool)
}

// LinguaDetector detects languages with the lingua statistical models.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over all supported languages. Models
// load lazily on first use.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}
}

// Detect returns the detected language, or false when the text is empty or
// no language is reliable enough.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return Normalize(lang.IsoCode639_1().String())
}

// Normalize canonicalizes a language code to its lower-case base subtag
// ("PT-BR" becomes "pt").
func Normalize(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}

// Dominant returns the most frequent language among texts, ties going to the
// language seen first.
func Dominant(d Detector, texts []string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, t := range texts {
		code, ok := d.Detect(t)
		if !ok {
			continue
		}
		if counts[code] == 0 {
			order = append(order, code)
		}
		counts[code]++
	}
	best := ""
	for _, code := range order {
		if counts[code] > counts[best] {
			best = code
		}
	}
	return best, best != ""
}
