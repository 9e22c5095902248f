// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log renders installer progress for people: one aligned line per
// destination entry, a header and summary per install step and short status
// messages.
// Everything printed is mirrored to zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/aiwf/pkg/status"
)

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	formatter status.FileFormatter
	mu        sync.Mutex
	current   string
	entries   []status.Entry
	total     []status.Entry
}

// 🏭 New creates a new logger printing to console, with structured logs on stderr
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// NewWithZerolog creates a logger mirroring to an existing zerolog logger
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFileFormatter(),
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 LogEntry prints one destination entry
func (l *Logger) LogEntry(ctx context.Context, entry status.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	l.total = append(l.total, entry)

	fmt.Fprintln(l.console, status.FormatLine(entry))

	l.zlog.Info().
		Str("path", entry.Path).
		Str("policy", entry.Policy).
		Str("outcome", entry.Outcome.String()).
		Msg("entry")
}

// Observer adapts LogEntry to the callback the installer expects
func (l *Logger) Observer(ctx context.Context) func(status.Entry) {
	return func(entry status.Entry) {
		l.LogEntry(ctx, entry)
	}
}

// 📝 StartOperation prints the header of an install step
func (l *Logger) StartOperation(ctx context.Context, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = name
	l.entries = nil

	fmt.Fprintf(l.console, "%s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(name))

	l.zlog.Debug().Str("operation", name).Msg("starting operation")
}

// 📝 EndOperation prints the entry totals of the current step
func (l *Logger) EndOperation(ctx context.Context, name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == "" {
		return
	}

	if err != nil {
		fmt.Fprintf(l.console, "    %s\n", color.New(color.FgRed).Sprint("failed"))
		l.zlog.Error().Err(err).Str("operation", name).Msg("operation failed")
	} else {
		summary := l.formatter.FormatSummary(l.entries)
		fmt.Fprintf(l.console, "    %s\n", color.New(color.Faint).Sprint(summary))
		l.zlog.Info().
			Str("operation", name).
			Int("entries", len(l.entries)).
			Str("summary", summary).
			Msg("operation complete")
	}

	l.current = ""
	l.entries = nil
}

// 📝 Source prints which template repository is being installed
func (l *Logger) Source(repo, ref string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s %s %s\n",
		color.New(color.Bold).Sprint(repo),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(ref))

	l.zlog.Info().Str("repo", repo).Str("ref", ref).Msg("template source")
}

// Entries returns every entry logged so far
func (l *Logger) Entries() []status.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]status.Entry(nil), l.total...)
}

// Summary formats the totals of every entry logged so far
func (l *Logger) Summary() string {
	return l.formatter.FormatSummary(l.Entries())
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("aiwf")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
