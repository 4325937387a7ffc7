package relay

import (
	"context"
	"errors"
	"time"

	"webhook-bridge/internal/application/port/input"
	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.BrowserRelay = (*BrowserRelay)(nil)

// BrowserRelay drives the single shared page. Navigate and evaluate must run
// back to back on the same document, so forwards are serialized. Time spent
// waiting for the page counts against the forward's deadline.
type BrowserRelay struct {
	browser output.BrowserPort
	logger  output.LoggerPort
	metrics output.MetricsPort
	timeout time.Duration

	page chan struct{}
}

func NewBrowserRelay(
	browser output.BrowserPort,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	timeout time.Duration,
) *BrowserRelay {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BrowserRelay{
		browser: browser,
		logger:  logger.Named("browser-relay"),
		metrics: metrics,
		timeout: timeout,
		page:    make(chan struct{}, 1),
	}
}

func (r *BrowserRelay) Forward(ctx context.Context, payload entity.Payload, targetURL string) *entity.ForwardResult {
	log := r.logger.WithFields(map[string]any{
		"forward_id": uuid.NewString(),
		"target":     targetURL,
	})

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res := r.acquireAndForward(ctx, payload, targetURL, log)
	took := time.Since(start)

	r.metrics.ObserveForward(entity.StrategyBrowser, browserOutcome(res), took)
	log.Debug("Browser forward finished",
		"status", res.Status,
		"status_text", res.StatusText,
		"duration_ms", took.Milliseconds(),
	)
	return res
}

// acquireAndForward waits for the page slot unless ctx ends first, in which
// case nothing is sent.
func (r *BrowserRelay) acquireAndForward(ctx context.Context, payload entity.Payload, targetURL string, log output.LoggerPort) *entity.ForwardResult {
	if err := ctx.Err(); err != nil {
		return entity.BrowserErrorResult(err)
	}
	select {
	case r.page <- struct{}{}:
		defer func() { <-r.page }()
		return r.forward(ctx, payload, targetURL, log)
	case <-ctx.Done():
		log.Warn("Gave up waiting for the browser page", "error", ctx.Err())
		return entity.BrowserErrorResult(ctx.Err())
	}
}

func (r *BrowserRelay) forward(ctx context.Context, payload entity.Payload, targetURL string, log output.LoggerPort) *entity.ForwardResult {
	if err := r.browser.Navigate(ctx, targetURL); err != nil {
		if !errors.Is(err, entity.ErrTargetUnreachable) {
			log.Error("Error during browser forwarding", "stage", "navigate", "error", err)
			return entity.BrowserErrorResult(err)
		}
		// The page now shows Chrome's error document; the fetch below will
		// hit the same network failure and report it as such.
		log.Warn("Target unreachable from browser", "error", err, "page", r.browser.CurrentURL())
	}

	res, err := r.browser.PostJSON(ctx, targetURL, payload)
	if err != nil {
		log.Error("Error during browser forwarding", "stage", "evaluate", "error", err)
		return entity.BrowserErrorResult(err)
	}
	return res
}
