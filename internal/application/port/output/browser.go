package output

import (
	"context"

	"webhook-bridge/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	// PostJSON runs fetch() inside the current page and returns what the page saw.
	PostJSON(ctx context.Context, url string, body []byte) (*entity.ForwardResult, error)

	CurrentURL() string
	IsReady() bool
	Close()
}
