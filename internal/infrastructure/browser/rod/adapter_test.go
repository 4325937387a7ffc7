package rod

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"webhook-bridge/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Headless)
	assert.True(t, cfg.NoSandbox)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.Bin)
}

func TestBrowserAdapter_CloseWithoutLaunch(t *testing.T) {
	adapter := &BrowserAdapter{}

	assert.False(t, adapter.IsReady())
	assert.NotPanics(t, func() {
		adapter.Close()
		adapter.Close()
	})
}

func TestBrowserAdapter_NotConnected(t *testing.T) {
	adapter := &BrowserAdapter{}
	ctx := context.Background()

	err := adapter.Navigate(ctx, "http://example.com")
	assert.ErrorIs(t, err, ErrBrowserNotConnected)

	_, err = adapter.PostJSON(ctx, "http://example.com", []byte(`{}`))
	assert.ErrorIs(t, err, ErrBrowserNotConnected)

	assert.Empty(t, adapter.CurrentURL())
}

func TestBrowserAdapter_Navigate_InvalidURL(t *testing.T) {
	adapter := &BrowserAdapter{}

	tests := []struct {
		name string
		url  string
	}{
		{"Empty URL", ""},
		{"Invalid scheme", "ftp://example.com"},
		{"JavaScript URL", "javascript:alert(1)"},
		{"Missing host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := adapter.Navigate(context.Background(), tt.url)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestDecodeResult(t *testing.T) {
	t.Run("with data", func(t *testing.T) {
		res, err := decodeResult(gson.New(map[string]any{
			"status":     201,
			"statusText": "Created",
			"data":       map[string]any{"ok": true},
		}))
		require.NoError(t, err)
		assert.Equal(t, 201, res.Status)
		assert.Equal(t, "Created", res.StatusText)
		assert.JSONEq(t, `{"ok":true}`, string(res.Data))
		assert.Empty(t, res.Error)
	})

	t.Run("network error", func(t *testing.T) {
		res, err := decodeResult(gson.New(map[string]any{
			"status":     0,
			"statusText": "Network Error",
			"error":      "Failed to fetch",
		}))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Status)
		assert.Equal(t, "Network Error", res.StatusText)
		assert.Equal(t, "Failed to fetch", res.Error)
	})

	t.Run("nil value", func(t *testing.T) {
		_, err := decodeResult(gson.New(nil))
		assert.ErrorIs(t, err, ErrEmptyResult)
	})
}

func TestNewBrowserAdapter(t *testing.T) {
	adapter := newTestAdapter(t)

	assert.NotNil(t, adapter.browser)
	assert.NotNil(t, adapter.launcher)
	assert.NotNil(t, adapter.page)
	assert.True(t, adapter.IsReady())
}

func TestNewBrowserAdapter_WithZeroTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	cfg := DefaultConfig()
	cfg.Timeout = 0

	adapter, err := NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	defer adapter.Close()

	assert.Equal(t, defaultTimeout, adapter.timeout)
}

func TestNewBrowserAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter, err := NewBrowserAdapter(ctx, DefaultConfig())
	assert.Error(t, err)
	assert.Nil(t, adapter)
}

func TestBrowserAdapter_Navigate(t *testing.T) {
	adapter := newTestAdapter(t)
	sink := newWebhookSink(t, http.StatusOK, "application/json", `{}`)

	err := adapter.Navigate(context.Background(), sink.URL)
	require.NoError(t, err)
	assert.Equal(t, sink.URL+"/", adapter.CurrentURL())
}

func TestBrowserAdapter_PostJSON(t *testing.T) {
	adapter := newTestAdapter(t)
	sink := newWebhookSink(t, http.StatusCreated, "application/json", `{"received":true}`)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, sink.URL))

	res, err := adapter.PostJSON(ctx, sink.URL, []byte(`{"event":"push","nested":{"n":[1,2]}}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Created", res.StatusText)
	assert.JSONEq(t, `{"received":true}`, string(res.Data))

	bodies, types := sink.received()
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"event":"push","nested":{"n":[1,2]}}`, bodies[0])
	assert.Equal(t, "application/json", types[0])
}

func TestBrowserAdapter_PostJSON_NonJSONResponse(t *testing.T) {
	adapter := newTestAdapter(t)
	sink := newWebhookSink(t, http.StatusOK, "text/plain", "OK")
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, sink.URL))

	res, err := adapter.PostJSON(ctx, sink.URL, []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "null", string(res.Data))
	assert.Empty(t, res.Error)
}

func TestBrowserAdapter_UnreachableTarget(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	target := "http://" + ln.Addr().String() + "/hook"
	require.NoError(t, ln.Close())

	err = adapter.Navigate(ctx, target)
	require.Error(t, err)
	assert.True(t, IsNavigationError(err), "expected navigation error, got %v", err)
	assert.ErrorIs(t, err, entity.ErrTargetUnreachable)

	res, err := adapter.PostJSON(ctx, target, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "Network Error", res.StatusText)
	assert.NotEmpty(t, res.Error)
}

func TestBrowserAdapter_Close(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	adapter, err := NewBrowserAdapter(context.Background(), DefaultConfig())
	require.NoError(t, err)

	assert.True(t, adapter.IsReady())

	adapter.Close()
	assert.False(t, adapter.IsReady())

	assert.NotPanics(t, func() {
		adapter.Close()
	})

	err = adapter.Navigate(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, ErrBrowserNotConnected)
}

func TestBrowserAdapter_NavigateTimeout(t *testing.T) {
	adapter := newTestAdapter(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := adapter.Navigate(ctx, "http://example.com")
	assert.Error(t, err)
}
