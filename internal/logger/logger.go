// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package logger wraps zerolog.Logger with the constructors and
// context helpers used across the carelog engine.
//
// Logger embeds zerolog.Logger, so the full zerolog API (Debug, Info,
// Warn, Error, ...) is available on *Logger. Long-lived components hold a
// *Logger; per-operation code prefers the context-scoped logger returned
// by FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger for the given component label (e.g. "engine",
// "scheduler"). Output is JSON on stderr with a timestamp, the component
// field, and the calling function's name in a "func" field.
func New(component string) *Logger {
	return NewWithOutput(component, os.Stderr)
}

// NewWithOutput is New with an explicit output writer. Used by the binary
// shell to log to a file next to the database instead of a terminal.
func NewWithOutput(component string, w io.Writer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	l := zerolog.New(w).With().
		Str("component", component).
		Timestamp().
		Caller().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Child returns a new *Logger inheriting the receiver's fields. The child
// can be enriched with extra fields without mutating the parent.
func (l *Logger) Child() *Logger {
	return &Logger{l.With().Logger()}
}

// WithContext attaches the logger to ctx so downstream code can recover it
// via FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext extracts the zerolog.Logger stored in ctx. When none was
// attached zerolog falls back to its global logger, so the result is never
// nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
