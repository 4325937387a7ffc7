// Package relay forwards inbound webhook payloads to the configured target,
// either through the shared browser page or with a plain HTTP POST.
package relay

import (
	"time"

	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"
)

const defaultTimeout = 30 * time.Second

func browserOutcome(res *entity.ForwardResult) string {
	switch {
	case res.Status == 500 && res.StatusText == entity.StatusTextBrowserError:
		return output.OutcomeBrowserError
	case res.Status == 0:
		return output.OutcomeNetworkError
	case res.Status >= 400:
		return output.OutcomeRejected
	default:
		return output.OutcomeOK
	}
}

func directOutcome(res *entity.DirectResult, err error) string {
	switch {
	case err != nil:
		return output.OutcomeError
	case res.StatusCode >= 400:
		return output.OutcomeRejected
	default:
		return output.OutcomeOK
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveForward(entity.Strategy, string, time.Duration) {}
func (noopMetrics) InvalidPayload()                                       {}
func (noopMetrics) BrowserReady(bool)                                     {}
