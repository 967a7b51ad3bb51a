package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ModelsProbe is the outcome of verifying a credential against the
// models-listing endpoint.
type ModelsProbe struct {
	OK          bool            `json:"ok"`
	Status      int             `json:"status"`
	StatusText  string          `json:"statusText"`
	HasModels   bool            `json:"hasModels"`
	SampleModel string          `json:"sampleModel,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// VerifyKey hits the public models list to check that a key works at all.
// Provider-side rejection is reported in the probe, not as an error.
func (c *Client) VerifyKey(ctx context.Context, key string) (ModelsProbe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return ModelsProbe{}, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("X-goog-api-key", key)

	resp, err := c.hc.Do(req)
	if err != nil {
		return ModelsProbe{}, fmt.Errorf("executing HTTP request: %w", err)
	}
	defer resp.Body.Close()

	probe := ModelsProbe{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return probe, nil
	}

	probe.HasModels = body.Models != nil
	if len(body.Models) > 0 {
		probe.SampleModel = body.Models[0].Name
	}
	probe.Error = body.Error

	return probe, nil
}
