package output

import (
	"time"

	"webhook-bridge/internal/domain/entity"
)

// Forward outcomes used as metric labels.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeNetworkError = "network_error"
	OutcomeBrowserError = "browser_error"
	OutcomeError        = "error"
)

type MetricsPort interface {
	ObserveForward(strategy entity.Strategy, outcome string, took time.Duration)
	InvalidPayload()
	BrowserReady(ready bool)
}
