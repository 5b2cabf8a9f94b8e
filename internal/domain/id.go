package domain

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for search requests and roster entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
