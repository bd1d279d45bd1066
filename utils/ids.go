package utils

import (
	"github.com/google/uuid"
)

// GetUUID returns a random v4 UUID string.
func GetUUID() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a UUID. Used to vet ids echoed back to clients.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
