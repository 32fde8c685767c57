package util

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a new ULID string. IDs generated within the same
// millisecond sort in generation order.
func NewULID() string {
	return NewULIDAt(time.Now())
}

// NewULIDAt returns a ULID carrying the timestamp t.
func NewULIDAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
