package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_PrefixesLocale(t *testing.T) {
	out, err := Mock{}.Translate(context.Background(), "hello", "fr")
	require.NoError(t, err)
	assert.Equal(t, "[fr] hello", out)
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://lt:5000/translate", endpoint("http://lt:5000", "/translate"))
	assert.Equal(t, "http://lt:5000/translate", endpoint("http://lt:5000/", "/translate"))
	assert.Equal(t, "http://lt:5000/translate", endpoint("http://lt:5000/translate", "/translate"))
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", endpoint("https://api.openai.com/v1", "/chat/completions"))
}

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{name: "auto with nothing falls back to mock", cfg: config.Config{TranslationProvider: "auto"}, want: Mock{}},
		{name: "auto prefers openai", cfg: config.Config{TranslationProvider: "auto", OpenAIAPIKey: "k", LibreTranslateURL: "http://lt"}, want: &OpenAI{}},
		{name: "auto uses libretranslate", cfg: config.Config{LibreTranslateURL: "http://lt"}, want: &LibreTranslate{}},
		{name: "explicit mock", cfg: config.Config{TranslationProvider: "MOCK", OpenAIAPIKey: "k"}, want: Mock{}},
		{name: "openai without key", cfg: config.Config{TranslationProvider: "openai"}, wantErr: true},
		{name: "libretranslate without url", cfg: config.Config{TranslationProvider: "libretranslate"}, wantErr: true},
		{name: "unknown provider", cfg: config.Config{TranslationProvider: "deepl"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestOpenAI_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, *req.Messages[0].Content, "fr")
		assert.Equal(t, "hello", *req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  bonjour \n"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(srv.Client(), srv.URL+"/v1", "secret", "test-model")
	out, err := o.Translate(context.Background(), "hello", "fr")

	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
}

func TestOpenAI_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "server error", status: http.StatusBadGateway, body: `{}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, target: ErrEmptyTranslation},
		{name: "null content", status: http.StatusOK, body: `{"choices":[{"message":{"content":null}}]}`, target: ErrEmptyTranslation},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, target: ErrEmptyTranslation},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI(srv.Client(), srv.URL, "k", "m").Translate(context.Background(), "hello", "fr")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestLibreTranslate_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)

		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "uk", req.Target)
		assert.Equal(t, "text", req.Format)
		assert.Equal(t, "lt-key", req.APIKey)
		assert.NotEmpty(t, req.Source)

		_, _ = w.Write([]byte(`{"translatedText":"привіт"}`))
	}))
	defer srv.Close()

	l := NewLibreTranslate(srv.Client(), srv.URL+"/", "lt-key", nil)
	out, err := l.Translate(context.Background(), "hello there, how are you doing today?", "uk")

	require.NoError(t, err)
	assert.Equal(t, "привіт", out)
}

func TestLibreTranslate_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText":""}`))
	}))
	defer srv.Close()

	_, err := NewLibreTranslate(srv.Client(), srv.URL, "", nil).Translate(context.Background(), "hello", "fr")
	assert.ErrorIs(t, err, ErrEmptyTranslation)
}

func TestLibreTranslate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText":"x"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLibreTranslate(srv.Client(), srv.URL, "", nil).Translate(ctx, "hello", "fr")
	assert.Error(t, err)
}

func TestSourceHint(t *testing.T) {
	catalog, err := localization.NewCatalog()
	require.NoError(t, err)
	l := NewLibreTranslate(http.DefaultClient, "http://lt", "", catalog)

	english := "The quick brown fox jumps over the lazy dog while the children watch from the garden."
	turkish := "Hızlı kahverengi tilki, çocuklar bahçeden izlerken tembel köpeğin üzerinden atlar."

	assert.Equal(t, "auto", l.sourceHint(""))
	assert.Equal(t, "en", l.sourceHint(english))
	assert.Equal(t, "auto", l.sourceHint(turkish), "locales outside the catalog are left to the server")
	assert.Equal(t, "auto", NewLibreTranslate(http.DefaultClient, "http://lt", "", nil).sourceHint(english))
}

func TestLibreTranslate_UnsupportedSourceSendsAuto(t *testing.T) {
	catalog, err := localization.NewCatalog()
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Source)
		_, _ = w.Write([]byte(`{"translatedText":"bonjour"}`))
	}))
	defer srv.Close()

	out, err := NewLibreTranslate(srv.Client(), srv.URL, "", catalog).
		Translate(context.Background(), "Hızlı kahverengi tilki, çocuklar bahçeden izlerken tembel köpeğin üzerinden atlar.", "fr")

	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
}
