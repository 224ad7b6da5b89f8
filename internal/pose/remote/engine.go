package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/repcoach/internal/pose"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 256 * 1024

var _ pose.Engine = (*Engine)(nil)

// Engine sends frames to a pose estimation service over HTTP. The service
// answers with the 33 body landmarks of the first person it finds.
type Engine struct {
	baseURL    string
	httpClient *http.Client
}

type detectRequest struct {
	Image       string `json:"image"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TimestampMs int64  `json:"timestampMs"`
}

type detectResponse struct {
	Landmarks []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Visibility float64 `json:"visibility"`
	} `json:"landmarks"`
}

func NewEngine(baseURL string, timeout time.Duration) *Engine {
	return &Engine{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Loader returns a pose.EngineLoader that waits for the service to report
// its model as loaded.
func Loader(baseURL string, timeout time.Duration) pose.EngineLoader {
	return func(ctx context.Context) (pose.Engine, error) {
		e := NewEngine(baseURL, timeout)
		if err := e.health(ctx); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (e *Engine) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pose service health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pose service not ready: status %d", resp.StatusCode)
	}
	return nil
}

func (e *Engine) Detect(ctx context.Context, frame pose.VideoFrame, timestampMs int64) ([]pose.Landmark, error) {
	if len(frame.Data) == 0 {
		return nil, fmt.Errorf("frame %d has no image data", frame.Seq)
	}

	body, err := json.Marshal(detectRequest{
		Image:       base64.StdEncoding.EncodeToString(frame.Data),
		Width:       frame.Width,
		Height:      frame.Height,
		TimestampMs: timestampMs,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pose service status %d: %s", resp.StatusCode, bytes.TrimSpace(respBytes))
	}

	var res detectResponse
	if err := json.Unmarshal(respBytes, &res); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	// no person in view
	if len(res.Landmarks) == 0 {
		return nil, nil
	}

	landmarks := make([]pose.Landmark, len(res.Landmarks))
	for i, l := range res.Landmarks {
		landmarks[i] = pose.Landmark{
			Index:      i,
			X:          l.X,
			Y:          l.Y,
			Visibility: l.Visibility,
		}
	}
	return landmarks, nil
}

func (e *Engine) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
