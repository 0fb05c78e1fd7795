package util

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	m       sync.Mutex
)

// NewULID returns a new lower-case ULID. Successive calls within the same millisecond are monotonically ordered.
func NewULID() string {
	m.Lock()
	defer m.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Now(), entropy).String())
}
