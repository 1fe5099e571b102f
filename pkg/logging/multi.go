package logging

import (
	"context"
	"log/slog"
)

// mirrorHandler sends every record to the console handler and copies it to
// a JSON handler writing the session log file (Config.Mirror). Each side
// keeps its own level check.
type mirrorHandler struct {
	console slog.Handler
	file    slog.Handler
}

func newMirrorHandler(console, file slog.Handler) *mirrorHandler {
	return &mirrorHandler{console: console, file: file}
}

func (h *mirrorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

// Handle reports console errors only. A failing log file must not hide
// output from the caller.
func (h *mirrorHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.file.Enabled(ctx, r.Level) {
		_ = h.file.Handle(ctx, r.Clone())
	}
	if h.console.Enabled(ctx, r.Level) {
		return h.console.Handle(ctx, r)
	}
	return nil
}

func (h *mirrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newMirrorHandler(h.console.WithAttrs(attrs), h.file.WithAttrs(attrs))
}

func (h *mirrorHandler) WithGroup(name string) slog.Handler {
	return newMirrorHandler(h.console.WithGroup(name), h.file.WithGroup(name))
}
