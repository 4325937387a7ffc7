package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL          = errors.New("invalid URL")
	ErrBrowserNotConnected = errors.New("browser not connected")
	ErrEmptyResult         = errors.New("empty evaluation result")
)

const defaultTimeout = 30 * time.Second

// fetchScript posts data to the page's own location. When the navigation
// ended on Chrome's error page the location is not http(s), so the target
// passed in is used instead and the fetch reports the network failure.
const fetchScript = `(target, data) => {
	const url = location.protocol.startsWith('http') ? window.location.href : target;
	return fetch(url, {
		method: 'POST',
		headers: {
			'Content-Type': 'application/json',
		},
		body: data
	}).then(response => {
		return response.json().then(json => ({
			status: response.status,
			statusText: response.statusText,
			data: json
		})).catch(() => ({
			status: response.status,
			statusText: response.statusText,
			data: null
		}));
	}).catch(error => ({
		status: 0,
		statusText: 'Network Error',
		error: error.message
	}));
}`

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

type BrowserConfig struct {
	Headless  bool
	NoSandbox bool
	// Bin is an explicit Chromium binary; empty lets rod find or download one.
	Bin     string
	Timeout time.Duration
	Trace   bool
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		NoSandbox: true,
		Timeout:   defaultTimeout,
	}
}

// NewBrowserAdapter launches Chromium and opens the single shared page.
// Anything acquired before a failure is released before returning.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (adapter *BrowserAdapter, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-web-security").
		Set("allow-running-insecure-content").
		Set("disable-setuid-sandbox")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	adapter = &BrowserAdapter{
		launcher: l,
		timeout:  cfg.Timeout,
	}
	defer func() {
		if err != nil && adapter != nil {
			adapter.Close()
			adapter = nil
		}
	}()

	controlURL, err := l.Launch()
	if err != nil {
		return adapter, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		Trace(cfg.Trace)
	if err = browser.Connect(); err != nil {
		return adapter, fmt.Errorf("failed to connect to browser: %w", err)
	}
	adapter.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return adapter, fmt.Errorf("failed to open page: %w", err)
	}
	adapter.page = page

	return adapter, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if !b.IsReady() {
		return ErrBrowserNotConnected
	}

	p := b.page.Context(ctx).Timeout(b.timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(rawURL); err != nil {
		if IsNavigationError(err) {
			return fmt.Errorf("navigation failed: %w: %w", entity.ErrTargetUnreachable, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) PostJSON(ctx context.Context, target string, body []byte) (*entity.ForwardResult, error) {
	if !b.IsReady() {
		return nil, ErrBrowserNotConnected
	}

	p := b.page.Context(ctx).Timeout(b.timeout)
	defer p.CancelTimeout()

	res, err := p.Evaluate(rod.Eval(fetchScript, target, string(body)).ByPromise())
	if err != nil {
		return nil, fmt.Errorf("evaluate fetch: %w", err)
	}
	return decodeResult(res.Value)
}

func (b *BrowserAdapter) CurrentURL() string {
	if !b.IsReady() {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) IsReady() bool {
	return b.page != nil && !b.closed.Load()
}

// Close is safe on a partially constructed adapter and on repeated calls.
func (b *BrowserAdapter) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)

		if b.browser != nil {
			_ = b.browser.Close()
		}
		// A launcher that never started a process has nothing to kill, and
		// Cleanup would block forever waiting for it to exit.
		if b.launcher != nil && b.launcher.PID() != 0 {
			b.launcher.Kill()
			b.launcher.Cleanup()
		}
	})
}

// IsNavigationError reports whether err came from Chrome failing to load the
// document (DNS, refused connection, TLS), as opposed to losing the session.
func IsNavigationError(err error) bool {
	var navErr *rod.NavigationError
	return errors.As(err, &navErr)
}

func decodeResult(v gson.JSON) (*entity.ForwardResult, error) {
	if v.Nil() {
		return nil, ErrEmptyResult
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode evaluation result: %w", err)
	}
	var result entity.ForwardResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode evaluation result: %w", err)
	}
	return &result, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
