// Package logging assembles the slog loggers used by comicpub.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// standardized field keys (component, comic_id, run_id, event_type,
// error_hint, impact). WithContext tags lines with identifiers carried on a
// context so publish stages do not thread them by hand. CleanupOldLogs prunes
// stale log files from the log directory.
package logging
