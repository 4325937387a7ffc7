package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"webhook-bridge/internal/application/port/input"
	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.DirectRelay = (*DirectRelay)(nil)

const maxResponseBytes = 10 << 20

// DirectRelay posts the payload with a plain HTTP client. Unlike BrowserRelay
// it returns its failures to the caller.
type DirectRelay struct {
	client  output.HTTPClient
	logger  output.LoggerPort
	metrics output.MetricsPort
	timeout time.Duration

	maxResponse int64
}

func NewDirectRelay(
	client output.HTTPClient,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	timeout time.Duration,
) *DirectRelay {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DirectRelay{
		client:      client,
		logger:      logger.Named("direct-relay"),
		metrics:     metrics,
		timeout:     timeout,
		maxResponse: maxResponseBytes,
	}
}

func (r *DirectRelay) Forward(ctx context.Context, payload entity.Payload, targetURL string) (*entity.DirectResult, error) {
	log := r.logger.WithFields(map[string]any{
		"forward_id": uuid.NewString(),
		"target":     targetURL,
	})

	start := time.Now()
	res, err := r.forward(ctx, payload, targetURL)
	took := time.Since(start)

	r.metrics.ObserveForward(entity.StrategyDirect, directOutcome(res, err), took)
	if err != nil {
		log.Error("Direct forward failed", "error", err, "duration_ms", took.Milliseconds())
		return nil, err
	}
	log.Debug("Direct forward finished", "status", res.StatusCode, "duration_ms", took.Milliseconds())
	return res, nil
}

func (r *DirectRelay) forward(ctx context.Context, payload entity.Payload, targetURL string) (*entity.DirectResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", entity.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponse+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", entity.ErrTransport, err)
	}
	if int64(len(body)) > r.maxResponse {
		return nil, fmt.Errorf("%w: response from %s too large (over %d bytes)", entity.ErrTransport, targetURL, r.maxResponse)
	}

	result := &entity.DirectResult{StatusCode: resp.StatusCode}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return result, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response from %s is not valid JSON (status %d)", entity.ErrTransport, targetURL, resp.StatusCode)
	}
	result.Body = json.RawMessage(body)
	return result, nil
}
