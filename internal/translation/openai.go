package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"babelbye/backend/internal/config"
)

// OpenAI translates through the chat completions API.
type OpenAI struct {
	client *http.Client
	url    string
	apiKey string
	model  string
}

func NewOpenAI(client *http.Client, baseURL, apiKey, model string) *OpenAI {
	return &OpenAI{
		client: client,
		url:    endpoint(baseURL, "/chat/completions"),
		apiKey: apiKey,
		model:  model,
	}
}

type chatMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	system := fmt.Sprintf("You are a translation engine. Translate the user's text into %s. "+
		"Return only the translated text without quotes or commentary.", targetLocale)

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: &system},
			{Role: "user", Content: &text},
		},
		Temperature: config.TranslationTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", ErrEmptyTranslation
	}
	translated := strings.TrimSpace(*out.Choices[0].Message.Content)
	if translated == "" {
		return "", ErrEmptyTranslation
	}
	return translated, nil
}
