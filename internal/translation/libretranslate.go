package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abadojack/whatlanggo"
)

// LibreTranslate translates through a LibreTranslate server.
type LibreTranslate struct {
	client    *http.Client
	url       string
	apiKey    string
	languages Languages
}

// NewLibreTranslate builds the adapter. Detected source languages are only
// sent when languages supports them; a nil languages always asks the server
// to auto-detect.
func NewLibreTranslate(client *http.Client, baseURL, apiKey string, languages Languages) *LibreTranslate {
	return &LibreTranslate{client: client, url: endpoint(baseURL, "/translate"), apiKey: apiKey, languages: languages}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (l *LibreTranslate) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	body, err := json.Marshal(libreRequest{
		Q:      text,
		Source: l.sourceHint(text),
		Target: targetLocale,
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("libretranslate returned status %d", resp.StatusCode)
	}

	var out libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding libretranslate response: %w", err)
	}
	if out.TranslatedText == "" && text != "" {
		return "", ErrEmptyTranslation
	}
	return out.TranslatedText, nil
}

// sourceHint names the source language when detection is reliable and the
// code is a supported locale, and otherwise lets the server auto-detect.
func (l *LibreTranslate) sourceHint(text string) string {
	if l.languages == nil {
		return "auto"
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "auto"
	}
	if code := info.Lang.Iso6391(); code != "" && l.languages.Supported(code) {
		return code
	}
	return "auto"
}
