package language

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sydlexius/artistorigin/internal/cache"
	"github.com/sydlexius/artistorigin/internal/provider"
)

const english = "en"

// Service derives an alternate spelling of an artist name in the language of
// the artist's own tracks, for catalogs that index the name in that language.
type Service struct {
	detector   Detector
	translator Translator
	store      *cache.Store
	logger     *slog.Logger
}

// NewService creates a Service. Translations are cached in store.
func NewService(detector Detector, translator Translator, store *cache.Store, logger *slog.Logger) *Service {
	return &Service{
		detector:   detector,
		translator: translator,
		store:      store,
		logger:     logger.With(slog.String("component", "language")),
	}
}

// TranslatedName returns name translated into the dominant language of
// trackTitles. It returns false when the tracks are in English or in the
// name's own language, or when no distinct translation is available.
func (s *Service) TranslatedName(ctx context.Context, name string, trackTitles []string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len(trackTitles) == 0 {
		return "", false
	}

	target, ok := Dominant(s.detector, trackTitles)
	if !ok || target == english {
		return "", false
	}
	source, ok := s.detector.Detect(name)
	if ok && source == target {
		return "", false
	}
	if !ok {
		source = "auto"
	}

	if out, ok := s.translate(ctx, name, source, target); ok {
		return out, true
	}
	if source != english {
		if out, ok := s.translate(ctx, name, english, target); ok {
			return out, true
		}
	}
	return "", false
}

// translate returns a non-empty translation that differs from text.
func (s *Service) translate(ctx context.Context, text, source, target string) (string, bool) {
	key := "translate_" + source + "_" + target + "_" + text
	out, hit := cache.GetJSON[string](ctx, s.store, key)
	if !hit {
		var err error
		out, err = s.translator.Translate(ctx, text, source, target)
		if err != nil {
			level := slog.LevelDebug
			if provider.IsTransient(err) {
				level = slog.LevelWarn
			}
			s.logger.Log(ctx, level, "translation failed",
				slog.String("source", source),
				slog.String("target", target),
				slog.String("error", err.Error()))
			if provider.IsTransient(err) {
				return "", false
			}
			out = ""
		}
		cache.SetJSON(s.store, key, out)
	}
	if out == "" || out == text {
		return "", false
	}
	return out, true
}

// Disabled is the capability used when translation is not configured.
type Disabled struct{}

// TranslatedName always reports no translation.
func (Disabled) TranslatedName(context.Context, string, []string) (string, bool) {
	return "", false
}
