package geo

import (
	"log/slog"

	"github.com/jdkato/prose/v2"
)

// EntityKind classifies an extracted entity.
type EntityKind int

const (
	// EntityPlace is a geopolitical entity or location.
	EntityPlace EntityKind = iota + 1
	// EntityNationality is a nationality, religious or political group.
	EntityNationality
)

// Entity is a span of text tagged by an EntityExtractor.
type Entity struct {
	Text string
	Kind EntityKind
}

// EntityExtractor finds places and nationalities in free text.
type EntityExtractor interface {
	Extract(text string) []Entity
}

// NoExtractor is the extractor used when NLP support is disabled.
type NoExtractor struct{}

// Extract always returns nil.
func (NoExtractor) Extract(string) []Entity { return nil }

// ProseExtractor tags entities with the prose named-entity model.
type ProseExtractor struct {
	logger *slog.Logger
}

// NewProseExtractor creates a ProseExtractor.
func NewProseExtractor(logger *slog.Logger) *ProseExtractor {
	return &ProseExtractor{logger: logger.With(slog.String("component", "geo.prose"))}
}

// Extract returns the GPE, LOC and NORP entities found in text. The bundled
// model tags nationality adjectives as GPE ("Belgian", "Dutch DJ"), so a
// GPE or LOC span that does not name a known place is returned as a
// nationality instead. Model failures are logged and yield no entities.
func (p *ProseExtractor) Extract(text string) []Entity {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(true),
		prose.WithExtraction(true))
	if err != nil {
		p.logger.Warn("entity extraction failed", slog.String("error", err.Error()))
		return nil
	}
	var out []Entity
	for _, ent := range doc.Entities() {
		switch ent.Label {
		case "GPE", "LOC":
			out = append(out, Entity{Text: ent.Text, Kind: placeOrNationality(ent.Text)})
		case "NORP":
			out = append(out, Entity{Text: ent.Text, Kind: EntityNationality})
		}
	}
	return out
}

func placeOrNationality(span string) EntityKind {
	if _, ok := resolvePlace(span); ok {
		return EntityPlace
	}
	return EntityNationality
}
