// Package translation adapts external machine-translation services.
package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"babelbye/backend/internal/config"
)

// ErrEmptyTranslation is returned when a provider answers without any text.
var ErrEmptyTranslation = errors.New("translation: empty result")

// Languages reports which locale codes a source hint may name.
type Languages interface {
	Supported(code string) bool
}

// Translator turns text into the target locale.
type Translator interface {
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

// New selects the provider once at startup. "auto" prefers OpenAI when a key
// is configured, then LibreTranslate when a URL is configured, then the mock.
func New(cfg config.Config, languages Languages) (Translator, error) {
	timeout := cfg.TranslationTimeout
	if timeout <= 0 {
		timeout = config.DefaultTranslationTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch strings.ToLower(cfg.TranslationProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("TRANSLATION_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return NewOpenAI(client, cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "libretranslate":
		if cfg.LibreTranslateURL == "" {
			return nil, errors.New("TRANSLATION_PROVIDER=libretranslate requires LIBRETRANSLATE_URL")
		}
		return NewLibreTranslate(client, cfg.LibreTranslateURL, cfg.LibreTranslateAPIKey, languages), nil
	case "mock":
		return Mock{}, nil
	case "", "auto":
		switch {
		case cfg.OpenAIAPIKey != "":
			return NewOpenAI(client, cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
		case cfg.LibreTranslateURL != "":
			return NewLibreTranslate(client, cfg.LibreTranslateURL, cfg.LibreTranslateAPIKey, languages), nil
		default:
			return Mock{}, nil
		}
	default:
		return nil, fmt.Errorf("unknown TRANSLATION_PROVIDER %q", cfg.TranslationProvider)
	}
}

// Mock prefixes the text with the target locale. Used in development.
type Mock struct{}

func (Mock) Translate(_ context.Context, text, targetLocale string) (string, error) {
	return fmt.Sprintf("[%s] %s", targetLocale, text), nil
}

// endpoint appends suffix to base unless base already ends with it.
func endpoint(base, suffix string) string {
	trimmed := strings.TrimRight(base, "/")
	if strings.HasSuffix(trimmed, suffix) {
		return trimmed
	}
	return trimmed + suffix
}
