package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string stamped with the current time.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a ULID whose time component is t. ULIDs sort lexicographically
// by that time, which keeps store scans roughly oldest-first.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
