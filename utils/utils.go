// Package utils provides utility functions for the application.
package utils

import "github.com/google/uuid"

// ToPtr returns a pointer to v. Used for the nullable gorm columns and
// optional DTO fields throughout the models.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue treats a nil pointer-boolean column as false
func IsTrue(b *bool) bool {
	return b != nil && *b
}

// ParseUUID parses a string into a UUID, returning an error on malformed input
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
