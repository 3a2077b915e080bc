package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/turtacn/sentinel/internal/application/dto"
	"github.com/turtacn/sentinel/pkg/constants"
)

// apiClient calls the Sentinel HTTP API and unwraps the response envelope.
type apiClient struct {
	opts *globalOptions
	http *http.Client
}

func newAPIClient(opts *globalOptions) *apiClient {
	return &apiClient{opts: opts, http: &http.Client{Timeout: opts.timeout}}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorDTO   `json:"error"`
}

// do returns the envelope's data on success.
func (c *apiClient) do(ctx context.Context, method, path string) (json.RawMessage, error) {
	url := strings.TrimRight(c.opts.addr, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if c.opts.apiKey != "" {
		req.Header.Set(constants.HeaderAPIKey, c.opts.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.opts.addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if env.Error != nil {
		return env.Data, fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return env.Data, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return env.Data, nil
}

func writeJSON(w io.Writer, data json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		_, werr := fmt.Fprintln(w, string(data))
		return werr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
