package input

import (
	"context"

	"webhook-bridge/internal/domain/entity"
)

// BrowserRelay never fails: browser problems are reported inside the result.
type BrowserRelay interface {
	Forward(ctx context.Context, payload entity.Payload, targetURL string) *entity.ForwardResult
}

type DirectRelay interface {
	Forward(ctx context.Context, payload entity.Payload, targetURL string) (*entity.DirectResult, error)
}
