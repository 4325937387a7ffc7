package di

import (
	"context"
	"fmt"
	"net/http"

	"webhook-bridge/internal/adapter/httpapi"
	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/infrastructure/browser/rod"
	"webhook-bridge/internal/infrastructure/env"
	"webhook-bridge/internal/infrastructure/httpclient"
	"webhook-bridge/internal/infrastructure/logger"
	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/internal/server"
	"webhook-bridge/internal/usecase/relay"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

type Container struct {
	Config  env.Config
	Logger  output.LoggerPort
	Metrics *metrics.Metrics
	Direct  *relay.DirectRelay
	Server  *server.Server

	accessLog zerolog.Logger
}

// Option overrides a default collaborator, mostly for tests.
type Option func(*options)

type options struct {
	browserFactory server.BrowserFactory
	logger         output.LoggerPort
}

func WithBrowserFactory(f server.BrowserFactory) Option {
	return func(o *options) { o.browserFactory = f }
}

func WithLogger(l output.LoggerPort) Option {
	return func(o *options) { o.logger = l }
}

func NewContainer(cfg env.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		log, err = logger.NewLoggerAdapter(logger.Config{
			Level:       cfg.LogLevel,
			Development: cfg.AppEnv == "dev",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
		accessLog: httplog.NewLogger(httpapi.ServiceName, httplog.Options{
			LogLevel: level.String(),
			JSON:     cfg.AppEnv != "dev",
			Concise:  true,
		}),
	}

	client := httpclient.New(httpclient.Config{Timeout: cfg.ForwardTimeout})
	c.Direct = relay.NewDirectRelay(client, log, c.Metrics, cfg.ForwardTimeout)

	newBrowser := o.browserFactory
	if newBrowser == nil {
		newBrowser = rodBrowserFactory(cfg)
	}

	c.Server = server.New(
		server.Config{
			Addr:            fmt.Sprintf(":%d", cfg.Port),
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		log,
		c.Metrics,
		newBrowser,
		c.handler,
	)
	return c, nil
}

func (c *Container) handler(browser output.BrowserPort) http.Handler {
	browserRelay := relay.NewBrowserRelay(browser, c.Logger, c.Metrics, c.Config.ForwardTimeout)
	h := httpapi.NewHandler(
		httpapi.Info{
			Port:       c.Config.Port,
			WebhookURL: c.Config.WebhookURL,
			LogLevel:   c.Config.LogLevel,
		},
		browserRelay,
		c.Direct,
		c.Logger,
		c.Metrics,
		c.Config.MaxBodyBytes,
	)
	return httpapi.NewRouter(h, c.accessLog, c.Metrics.Handler())
}

func (c *Container) Close() {
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}

func rodBrowserFactory(cfg env.Config) server.BrowserFactory {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browserCfg.Bin = cfg.BrowserBin
	browserCfg.Timeout = cfg.ForwardTimeout

	return func(ctx context.Context) (output.BrowserPort, error) {
		b, err := rod.NewBrowserAdapter(ctx, browserCfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
