package ctxlog

import (
	"context"
	"log/slog"
)

// LevelHandler filters records below its own adjustable level before handing
// them to the wrapped handler.
type LevelHandler struct {
	level   *slog.LevelVar
	handler slog.Handler
}

// NewLevelHandler wraps h. If h is itself a LevelHandler, the new handler wraps
// the underlying one so levels never stack.
func NewLevelHandler(h slog.Handler, level slog.Level) *LevelHandler {
	if lh, ok := h.(*LevelHandler); ok {
		h = lh.handler
	}
	lv := &slog.LevelVar{}
	lv.Set(level)
	return &LevelHandler{level: lv, handler: h}
}

// Level returns the variable controlling this handler's threshold.
func (h *LevelHandler) Level() *slog.LevelVar {
	return h.level
}

func (h *LevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Channel derives a child logger with its own level, starting from the
// parent's current level. The returned LevelVar adjusts only the child.
func Channel(parent *slog.Logger, attrs ...any) (*slog.Logger, *slog.LevelVar) {
	if parent == nil {
		parent = slog.Default()
	}
	level := slog.LevelInfo
	if lh, ok := parent.Handler().(*LevelHandler); ok {
		level = lh.level.Level()
	} else {
		for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			if parent.Handler().Enabled(context.Background(), l) {
				level = l
				break
			}
		}
	}
	h := NewLevelHandler(parent.Handler(), level)
	return slog.New(h).With(attrs...), h.level
}
