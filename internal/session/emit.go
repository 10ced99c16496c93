package session

import "log/slog"

// emit logs err, if any, and drops it.
func emit(err error, msg string, args ...any) {
	if err == nil {
		return
	}
	slog.Error(msg, append([]any{"error", err}, args...)...)
}
