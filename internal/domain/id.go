package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID generates a collision-resistant record identifier without server
// coordination: a millisecond timestamp plus a random UUID-derived suffix.
// Two devices creating records offline at the same instant still diverge on
// the suffix.
func NewID() string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
