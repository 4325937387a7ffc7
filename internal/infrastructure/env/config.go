package env

import (
	"time"

	"webhook-bridge/internal/application/port/output"
)

const (
	DefaultPort            = 3005
	DefaultWebhookURL      = "http://localhost:5678/webhook"
	DefaultLogLevel        = "INFO"
	DefaultForwardTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
)

type Config struct {
	AppEnv     string
	Port       int
	WebhookURL string
	LogLevel   string

	BrowserHeadless  bool
	BrowserNoSandbox bool
	BrowserBin       string

	ForwardTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

func Load(src output.ConfigPort) Config {
	cfg := Config{
		AppEnv:     src.GetWithDefault("APP_ENV", "dev"),
		Port:       src.GetInt("PORT", DefaultPort),
		WebhookURL: src.GetWithDefault("WEBHOOK_URL", DefaultWebhookURL),
		LogLevel:   src.GetWithDefault("LOG_LEVEL", DefaultLogLevel),

		BrowserHeadless:  src.GetBool("BROWSER_HEADLESS", true),
		BrowserNoSandbox: src.GetBool("BROWSER_NO_SANDBOX", true),
		BrowserBin:       src.Get("BROWSER_BIN"),

		ForwardTimeout:  src.GetDuration("FORWARD_TIMEOUT", DefaultForwardTimeout),
		ShutdownTimeout: src.GetDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		MaxBodyBytes:    int64(src.GetInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return cfg
}
