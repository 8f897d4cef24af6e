// Package logger builds preconfigured slog loggers and provides typed
// attribute helpers for the identifiers this codebase logs most.
package logger
