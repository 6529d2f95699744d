package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 512

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("predictor endpoint returned http %d: %s", e.StatusCode, e.Body)
}

// Throttled reports whether the service asked the client to slow down.
func (e *StatusError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

var _ Predictor = (*HTTPPredictor)(nil)

// HTTPPredictor posts JSON requests to a single inference endpoint.
type HTTPPredictor struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
}

// NewHTTPPredictor creates a predictor for endpoint. headers are added to every
// request (e.g. an API gateway key).
func NewHTTPPredictor(endpoint string, timeout time.Duration, headers map[string]string) *HTTPPredictor {
	return &HTTPPredictor{
		endpoint: endpoint,
		headers:  headers,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Endpoint returns the configured endpoint URL.
func (p *HTTPPredictor) Endpoint() string { return p.endpoint }

// Predict makes a single round-trip. It never retries.
func (p *HTTPPredictor) Predict(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", req.Type, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", req.Type, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s call: %w", req.Type, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Type, err)
	}

	log.WithFields(log.Fields{
		"type":       req.Type,
		"request_id": requestID,
		"status":     resp.StatusCode,
		"latency":    time.Since(start),
	}).Debug("predictor call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", req.Type, err)
	}
	return &out, nil
}

// Close releases idle connections.
func (p *HTTPPredictor) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
