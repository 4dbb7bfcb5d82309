/*
Package randx provides identifier generation for sessions and messages.

Session IDs tag a connection in logs from accept to close, before and after it claims a display
name; message IDs give every Message a stable identity in history snapshots.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// SessionIDPrefix is prepended to every generated session identifier.
const SessionIDPrefix = "sess_"

// SessionID generates a new session identifier of the form "sess_<uuid without dashes>".
func SessionID() string {
	return SessionIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// IsValidSessionID checks if the given string has the shape produced by SessionID.
func IsValidSessionID(id string) bool {
	raw, ok := strings.CutPrefix(id, SessionIDPrefix)
	if !ok {
		return false
	}

	if len(raw) != 32 {
		return false
	}

	_, err := uuid.Parse(raw)
	return err == nil
}
