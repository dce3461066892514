package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultHTTPClient is shared by the HTTP-based providers.
var defaultHTTPClient = &http.Client{Timeout: 120 * time.Second}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return defaultHTTPClient
}

// postJSON sends body to url and decodes a 200 response into out.
// Errors are prefixed with tag, e.g. "OPENAI_API_ERROR".
func postJSON(ctx context.Context, client *http.Client, tag, url string, headers map[string]string, body, out interface{}) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s_MARSHAL_ERROR: %v", tag, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return fmt.Errorf("%s_REQ_CREATE_ERROR: %v", tag, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s_API_CALL_ERROR: %w", tag, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s_READ_BODY_ERROR: %v", tag, err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s_API_ERROR: status=%d body=%s", tag, res.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s_UNMARSHAL_ERROR: %v", tag, err)
	}
	return nil
}
