package history

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

const logPreviewRunes = 120

// logCapture logs a new entry at INFO (length and history size) and, when
// enabled, DEBUG with a text preview of up to 120 runes.
func logCapture(e Entry, size int) {
	slog.Info("clipboard captured", "chars", utf8.RuneCountInString(e.Text), "entries", size)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	preview := e.Text
	if utf8.RuneCountInString(preview) > logPreviewRunes {
		preview = string([]rune(preview)[:logPreviewRunes]) + "…"
	}
	slog.Debug("clipboard entry", "timestamp", e.Timestamp, "preview", preview)
}
