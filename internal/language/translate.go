package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sydlexius/artistorigin/internal/provider"
)

// Translator translates short texts between languages. source may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// LibreTranslator calls a LibreTranslate-compatible /translate endpoint.
type LibreTranslator struct {
	client   *provider.Client
	endpoint string
	apiKey   string
}

// NewLibreTranslator creates a translator for the endpoint base URL.
func NewLibreTranslator(client *provider.Client, endpoint, apiKey string) *LibreTranslator {
	return &LibreTranslator{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate returns the translated text.
func (t *LibreTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encoding translate request: %w", err)
	}

	resp, err := t.client.Do(ctx, provider.NameTranslate, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/translate", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, nil)
	if err != nil {
		return "", err
	}
	if err := provider.CheckStatus(provider.NameTranslate, source+">"+target, resp); err != nil {
		return "", err
	}

	var out translateResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("parsing translate response: %w", err)
	}
	return strings.TrimSpace(out.TranslatedText), nil
}
