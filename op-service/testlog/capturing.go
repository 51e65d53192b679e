package testlog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// CapturingHandler captures all log records and optionally forwards them to a delegate.
type CapturingHandler struct {
	handler slog.Handler
	mu      *sync.Mutex
	Logs    *[]*slog.Record // shared among derived CapturingHandlers
}

// CaptureLogger returns a logger that records every log entry at or above level,
// and the handler to inspect them with.
func CaptureLogger(t Testing, level slog.Level) (log.Logger, *CapturingHandler) {
	return WrapCaptureLogger(Logger(t, level).Handler(), level)
}

func WrapCaptureLogger(h slog.Handler, level slog.Level) (log.Logger, *CapturingHandler) {
	ch := &CapturingHandler{
		handler: h,
		mu:      new(sync.Mutex),
		Logs:    new([]*slog.Record),
	}
	return log.NewLogger(&levelFilter{level: level, Handler: ch}), ch
}

func (c *CapturingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (c *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	c.mu.Lock()
	cpy := r.Clone()
	*c.Logs = append(*c.Logs, &cpy)
	c.mu.Unlock()
	if c.handler != nil && c.handler.Enabled(ctx, r.Level) {
		return c.handler.Handle(ctx, r)
	}
	return nil
}

func (c *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var inner slog.Handler
	if c.handler != nil {
		inner = c.handler.WithAttrs(attrs)
	}
	return &CapturingHandler{handler: inner, mu: c.mu, Logs: c.Logs}
}

func (c *CapturingHandler) WithGroup(name string) slog.Handler {
	var inner slog.Handler
	if c.handler != nil {
		inner = c.handler.WithGroup(name)
	}
	return &CapturingHandler{handler: inner, mu: c.mu, Logs: c.Logs}
}

// FindLog returns the first captured record with the given level and message, or nil.
func (c *CapturingHandler) FindLog(level slog.Level, msg string) *slog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range *c.Logs {
		if r.Level == level && r.Message == msg {
			return r
		}
	}
	return nil
}

// AttrValue returns the value of the first attribute with the given key on the record.
func AttrValue(r *slog.Record, key string) (slog.Value, bool) {
	var out slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			out = a.Value
			found = true
			return false
		}
		return true
	})
	return out, found
}

type levelFilter struct {
	level slog.Level
	slog.Handler
}

func (f *levelFilter) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= f.level
}

func (f *levelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelFilter{level: f.level, Handler: f.Handler.WithAttrs(attrs)}
}

func (f *levelFilter) WithGroup(name string) slog.Handler {
	return &levelFilter{level: f.level, Handler: f.Handler.WithGroup(name)}
}
