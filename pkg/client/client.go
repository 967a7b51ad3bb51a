package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

// Client talks to the chat service's HTTP surface. It satisfies the
// conversation controller's Generator and ThreadStore interfaces so the
// terminal client can drive the same pipeline the browser did.
type Client struct {
	baseURL string
	userID  string
	hc      *http.Client
}

func New(baseURL, userID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		hc:      &http.Client{},
	}
}

func (c *Client) GenerateReply(ctx context.Context, messages []domain.Message, keyOverride string) domain.GenerationResult {
	body := struct {
		Messages []domain.Message `json:"messages"`
		APIKey   string           `json:"apiKey,omitempty"`
	}{Messages: messages, APIKey: keyOverride}

	var out struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	status, err := c.do(ctx, http.MethodPost, "/chat", body, &out)
	if err != nil {
		return domain.GenerationResult{Failure: transportFailure(err)}
	}
	if status != http.StatusOK {
		message := out.Error
		if message == "" {
			message = fmt.Sprintf("Sorry, the server returned %d. Please try again.", status)
		}
		kind := domain.FailureProvider
		if status == http.StatusGatewayTimeout {
			kind = domain.FailureTimeout
		}
		return domain.GenerationResult{Failure: &domain.GenerationFailure{Kind: kind, Status: status, Message: message}}
	}

	return domain.GenerationResult{Text: out.Text}
}

func (c *Client) EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error) {
	body := struct {
		Title string `json:"title"`
	}{Title: titleHint}

	var out struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	status, err := c.do(ctx, http.MethodPost, "/threads", body, &out)
	if err != nil {
		return "", &domain.PersistenceError{Op: "creating thread", Err: err}
	}
	if status != http.StatusOK {
		return "", &domain.PersistenceError{Op: "creating thread", Err: serverError(status, out.Error)}
	}

	return out.ID, nil
}

func (c *Client) SaveMessage(ctx context.Context, threadID string, message domain.Message) error {
	status, err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", message, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "saving message", Err: err}
	}
	if status != http.StatusOK {
		return &domain.PersistenceError{Op: "saving message", Err: serverError(status, "")}
	}
	return nil
}

// serverError prefers the server's error message, falling back to the bare
// status when the response carried none.
func serverError(status int, message string) error {
	if message == "" {
		return fmt.Errorf("server returned %d", status)
	}
	return errors.New(message)
}

func (c *Client) LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	var out struct {
		Messages []domain.Message `json:"messages"`
		Error    string           `json:"error"`
	}
	status, err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &out)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "loading messages", Err: err}
	}
	if status != http.StatusOK {
		return nil, &domain.PersistenceError{Op: "loading messages", Err: serverError(status, out.Error)}
	}
	return out.Messages, nil
}

func (c *Client) ListThreads(ctx context.Context) ([]domain.Thread, error) {
	var out struct {
		Threads []domain.Thread `json:"threads"`
		Error   string          `json:"error"`
	}
	status, err := c.do(ctx, http.MethodGet, "/threads", nil, &out)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listing threads", Err: err}
	}
	if status != http.StatusOK {
		return nil, &domain.PersistenceError{Op: "listing threads", Err: serverError(status, out.Error)}
	}
	return out.Threads, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set("x-user-id", c.userID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if out != nil {
		// Error payloads share the response shape, so decode regardless of
		// status and let callers inspect both.
		_ = json.NewDecoder(resp.Body).Decode(out)
	}

	return resp.StatusCode, nil
}

func transportFailure(err error) *domain.GenerationFailure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.GenerationFailure{
			Kind:    domain.FailureTimeout,
			Status:  504,
			Message: "Request timed out. Please try again.",
		}
	}
	return &domain.GenerationFailure{
		Kind:    domain.FailureNetwork,
		Message: err.Error(),
	}
}
