package kernel

import (
	"io"
	"log/slog"

	"github.com/vk/composegrid/internal/ctxlog"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. The handler
// itself accepts every level; the threshold lives in a LevelHandler so model
// channels can lower it for themselves.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, _ := ctxlog.ParseLevel(levelStr)
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(ctxlog.NewLevelHandler(handler, level))
}
