package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NumberGenerator produces candidate order numbers. Swappable in tests to
// force collisions.
type NumberGenerator func() (string, error)

// NewOrderNumber builds a timestamp-plus-random order number. Uniqueness is
// enforced by the database; callers retry once with a fresh number on
// collision.
func NewOrderNumber() (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate order number suffix: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().UTC().Format("20060102150405"),
		hex.EncodeToString(suffix)), nil
}
