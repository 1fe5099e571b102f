package id

import (
	"strings"

	"github.com/google/uuid"
)

// Session returns a new random session ID in canonical UUID form.
func Session() string {
	return uuid.NewString()
}

// Short returns the first eight hex digits of a session ID.
func Short(sessionID string) string {
	s := strings.ReplaceAll(sessionID, "-", "")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
