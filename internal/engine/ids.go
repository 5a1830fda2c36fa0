package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID is the default id factory: a millisecond timestamp prefix for rough
// sortability, followed by a random UUID suffix.
func NewID() string {
	return fmt.Sprintf("%013d-%s", time.Now().UnixMilli(), uuid.NewString())
}

// SequentialIDFactory returns a deterministic factory for tests and replays.
// Ids are "<prefix>-000001", "<prefix>-000002", ...
func SequentialIDFactory(prefix string) IDFactory {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%06d", prefix, n)
	}
}
