package rod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const LandingHTML = `<!DOCTYPE html>
<html>
<head><title>Webhook Target</title></head>
<body><h1>POST JSON here</h1></body>
</html>`

// webhookSink answers GET with a page and POST with a configurable body,
// recording every POST it receives.
type webhookSink struct {
	*httptest.Server

	mu          sync.Mutex
	bodies      []string
	contentType []string

	status       int
	responseType string
	responseBody string
}

func newWebhookSink(t *testing.T, status int, responseType, responseBody string) *webhookSink {
	t.Helper()
	s := &webhookSink{status: status, responseType: responseType, responseBody: responseBody}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, LandingHTML)
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(body))
		s.contentType = append(s.contentType, r.Header.Get("Content-Type"))
		s.mu.Unlock()

		w.Header().Set("Content-Type", s.responseType)
		w.WriteHeader(s.status)
		fmt.Fprint(w, s.responseBody)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *webhookSink) received() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...), append([]string(nil), s.contentType...)
}

func newTestAdapter(t *testing.T) *BrowserAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	adapter, err := NewBrowserAdapter(context.Background(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(adapter.Close)
	return adapter
}
