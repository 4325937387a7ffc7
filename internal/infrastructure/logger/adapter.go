package logger

import (
	"errors"
	"syscall"

	"webhook-bridge/internal/application/port/output"

	"go.uber.org/zap"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	log *zap.SugaredLogger
}

func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	z, err := newZap(cfg)
	if err != nil {
		return nil, err
	}
	return &LoggerAdapter{log: z.Sugar()}, nil
}

// NewFromZap wraps an existing zap logger, e.g. zaptest or zap.NewNop in tests.
func NewFromZap(z *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{log: z.Sugar()}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.log.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.log.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.log.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.log.Errorw(msg, args...)
}

func (l *LoggerAdapter) Named(name string) output.LoggerPort {
	return &LoggerAdapter{log: l.log.Named(name)}
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{log: l.log.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{log: l.log.With(args...)}
}

// Close flushes buffered entries. Sync on a terminal returns EINVAL/ENOTTY, which is ignored.
func (l *LoggerAdapter) Close() error {
	err := l.log.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
