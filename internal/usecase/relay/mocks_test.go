package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"
	"webhook-bridge/internal/infrastructure/logger"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockBrowser) PostJSON(ctx context.Context, url string, body []byte) (*entity.ForwardResult, error) {
	args := m.Called(ctx, url, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ForwardResult), args.Error(1)
}

func (m *MockBrowser) CurrentURL() string {
	return m.Called().String(0)
}

func (m *MockBrowser) IsReady() bool {
	return m.Called().Bool(0)
}

func (m *MockBrowser) Close() {
	m.Called()
}

// slowBrowser records how many forwards overlap on the page.
type slowBrowser struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	navigated   []string
}

func (b *slowBrowser) Navigate(ctx context.Context, url string) error {
	n := b.inFlight.Add(1)
	for {
		cur := b.maxInFlight.Load()
		if n <= cur || b.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	b.mu.Lock()
	b.navigated = append(b.navigated, url)
	b.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (b *slowBrowser) PostJSON(ctx context.Context, url string, body []byte) (*entity.ForwardResult, error) {
	time.Sleep(5 * time.Millisecond)
	b.inFlight.Add(-1)
	return &entity.ForwardResult{Status: 200, StatusText: "OK", Data: body}, nil
}

func (b *slowBrowser) CurrentURL() string { return "" }
func (b *slowBrowser) IsReady() bool      { return true }
func (b *slowBrowser) Close()             {}

type recordedForward struct {
	strategy entity.Strategy
	outcome  string
}

type fakeMetrics struct {
	mu       sync.Mutex
	forwards []recordedForward
}

func (m *fakeMetrics) ObserveForward(strategy entity.Strategy, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwards = append(m.forwards, recordedForward{strategy, outcome})
}

func (m *fakeMetrics) InvalidPayload()   {}
func (m *fakeMetrics) BrowserReady(bool) {}

func (m *fakeMetrics) last() recordedForward {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forwards[len(m.forwards)-1]
}

func testLogger(t *testing.T) output.LoggerPort {
	return logger.NewFromZap(zaptest.NewLogger(t))
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}
