package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a Gemini API client. An empty baseURL selects the public
// endpoint; tests point it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}
}

// GenerateContent issues a single generateContent call and returns the text
// of the first candidate, parts joined with newlines. No retries here: retry
// policy belongs to the caller.
func (c *Client) GenerateContent(ctx context.Context, contents []Content, key, modelID string) (string, error) {
	reqBody := generateContentRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	// The key travels both as query parameter and header; the endpoint
	// tolerates either.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, modelID, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", key)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", providerErrorFrom(resp)
	}

	var genResponse generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResponse); err != nil {
		return "", fmt.Errorf("decoding response data: %w", err)
	}

	return extractText(genResponse)
}

func extractText(resp generateContentResponse) (string, error) {
	if resp.Candidates == nil {
		return "", domain.ErrEmptyResponse
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var texts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != nil {
			texts = append(texts, *p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

func providerErrorFrom(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var payload errorResponse
	var message string
	if err := json.Unmarshal(bodyBytes, &payload); err == nil {
		message, _ = lo.Coalesce(payload.Error.Message, payload.Message)
	}
	if message == "" {
		message = fmt.Sprintf("Gemini error %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &domain.ProviderError{Status: resp.StatusCode, Message: message}
}
