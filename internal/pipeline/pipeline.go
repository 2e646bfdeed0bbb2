// internal/pipeline/pipeline.go
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	apperrors "github.com/rakshaklabs/rakshak-console/internal/errors"
)

// Client issues authenticated requests to the legal analysis engine and
// normalizes every outcome into a Response or a typed *errors.AppError.
// Single attempt per call: no retry, no caching. A superseded request's
// result is discarded by the caller on arrival rather than aborted
// in-flight (known limitation).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Response is a normalized engine response. Body is retained verbatim
// so callers can keep the raw payload for structured previews.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON parses the body for loose field extraction. The engine's bodies
// are deliberately open-ended, so access goes through gjson paths
// instead of rigid structs.
func (r *Response) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// NewClient creates a pipeline client for the engine at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// PostJSON sends payload to endpoint and requires a JSON body back.
// Failure kinds: network (transport error), service (non-2xx),
// malformed (2xx body that is not valid JSON).
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload interface{}) (*Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewMalformedError("failed to encode request payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, apperrors.NewMalformedError(
			fmt.Sprintf("engine returned an unparseable body for %s", endpoint), nil)
	}

	return resp, nil
}

// GetRaw fetches a binary resource from endpoint. The body is returned
// as-is; no shape is imposed on it.
func (c *Client) GetRaw(ctx context.Context, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build request", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req)
}

// do executes the request and folds the transport and status outcomes
// into the failure taxonomy. It never lets a raw error escape.
func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("request to %s failed", req.URL.Path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("failed to read response from %s", req.URL.Path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewServiceError(
			fmt.Sprintf("engine rejected %s (%d): %s", req.URL.Path, resp.StatusCode, string(body)), nil)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
