package types

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// validIDPattern matches the teacher's candidate-id convention
// (internal/pool's validateCandidateID): alphanumeric plus hyphen/underscore.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const maxIDLength = 128

// ValidateID reports whether id is a well-formed bullet/diary identifier.
func ValidateID(id string) error {
	if id == "" {
		return ErrBulletIDRequired
	}
	if len(id) > maxIDLength {
		return ErrBulletIDInvalid
	}
	if !validIDPattern.MatchString(id) {
		return ErrBulletIDInvalid
	}
	return nil
}

// NewID generates a fresh id of the form "<prefix>-<12 hex chars>", the
// teacher's own candidate-id convention (internal/pool.PoolEntry ids).
func NewID(prefix string) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + "-" + hex.EncodeToString(buf), nil
}
