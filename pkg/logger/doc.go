// Package logger provides slog attribute helpers shared across streamkit
// components.
//
// Helpers follow the empty Attr pattern: passing a nil error or empty id
// yields an attribute slog silently drops, so call sites never need nil
// checks:
//
//	log.Warn("broadcast partially failed",
//		logger.RoomID(room.ID),
//		logger.Error(err),
//	)
package logger
