// Package logger provides a colored slog handler for terminal output.
// Warnings render yellow, errors red, and ledger persistence messages
// green so store activity stands out during long ingests.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// highlightPhrases pick out store persistence messages for green
// highlighting.
var highlightPhrases = []string{"persist", "seeded", "stored", "created"}

// Options configures the colored handler.
type Options struct {
	Level   slog.Leveler
	Colored bool
	Writer  io.Writer
}

// ColoredHandler is a slog.Handler writing single-line colored text.
type ColoredHandler struct {
	opts   Options
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
	out    io.Writer
}

// NewLogger creates a slog.Logger with the given options.
func NewLogger(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return slog.New(&ColoredHandler{opts: opts, mu: &sync.Mutex{}, out: opts.Writer})
}

// NewDefaultLogger creates a colored stderr logger at the given level.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Options{Level: level, Colored: true})
}

func (h *ColoredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *ColoredHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Time.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(record.Level.String())
	sb.WriteString(" ")
	sb.WriteString(record.Message)

	for _, attr := range h.attrs {
		appendAttr(&sb, attr, h.groups)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, attr, h.groups)
		return true
	})

	line := sb.String()
	if h.opts.Colored {
		line = colorize(record.Level, record.Message, line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *ColoredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *ColoredHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func appendAttr(sb *strings.Builder, attr slog.Attr, groups []string) {
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	sb.WriteString(" ")
	sb.WriteString(key)
	sb.WriteString("=")
	sb.WriteString(attr.Value.String())
}

func colorize(level slog.Level, message, line string) string {
	switch {
	case level >= slog.LevelError:
		return colorRed + line + colorReset
	case level >= slog.LevelWarn:
		return colorYellow + line + colorReset
	default:
		lower := strings.ToLower(message)
		for _, phrase := range highlightPhrases {
			if strings.Contains(lower, phrase) {
				return colorGreen + line + colorReset
			}
		}
		return line
	}
}
