package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// NewTerminalHandlerWithLevel returns a human-readable handler that drops
// records below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return gethlog.NewTerminalHandlerWithLevel(wr, lvl, useColor)
}

// JSONHandlerWithLevel returns a handler writing one JSON object per record.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return gethlog.JSONHandlerWithLevel(wr, lvl)
}

func DiscardHandler() slog.Handler {
	return gethlog.DiscardHandler()
}
