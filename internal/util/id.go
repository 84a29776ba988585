package util

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// GenerateID returns a lexicographically sortable unique ID with given prefix.
func GenerateID(prefix string) string {
	return prefix + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
