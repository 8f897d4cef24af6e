package logger

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	level   slog.Level
	json    bool
	output  io.Writer
	service string
}

// Option customizes logger construction.
type Option func(*config)

// WithLevel sets the minimum level. Defaults to slog.LevelInfo.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithJSON emits structured JSON records. This is the default.
func WithJSON() Option {
	return func(c *config) { c.json = true }
}

// WithText emits human-readable text records.
func WithText() Option {
	return func(c *config) { c.json = false }
}

// WithOutput redirects log output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithService attaches a service name to every record.
func WithService(name string) Option {
	return func(c *config) { c.service = name }
}

// New builds a slog.Logger with the package defaults applied.
func New(opts ...Option) *slog.Logger {
	cfg := config{
		level:  slog.LevelInfo,
		json:   true,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	log := slog.New(handler)
	if cfg.service != "" {
		log = log.With(slog.String("service", cfg.service))
	}
	return log
}
