package util

import (
	"strings"

	"github.com/google/uuid"
)

const idLength = 12

// GenerateID returns a short random identifier. Uniqueness is probable, not guaranteed.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}
