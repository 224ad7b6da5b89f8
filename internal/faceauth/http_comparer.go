package faceauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 64 * 1024

var _ Comparer = (*HTTPComparer)(nil)

// HTTPComparer delegates the comparison to a remote face recognition service.
type HTTPComparer struct {
	url        string
	httpClient *http.Client
}

type compareRequest struct {
	Reference string `json:"reference"`
	Live      string `json:"live"`
}

func NewHTTPComparer(url string, timeout time.Duration) *HTTPComparer {
	return &HTTPComparer{
		url: url,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPComparer) Compare(ctx context.Context, reference, live string) (Result, error) {
	body, err := json.Marshal(compareRequest{
		Reference: reference,
		Live:      live,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("face service status %d: %s", resp.StatusCode, bytes.TrimSpace(respBytes))
	}

	var res struct {
		Match      *bool    `json:"match"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(respBytes, &res); err != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if res.Match == nil || res.Confidence == nil {
		return Result{}, fmt.Errorf("malformed response: %s", respBytes)
	}

	return Result{
		Match:      *res.Match,
		Confidence: *res.Confidence,
	}, nil
}
