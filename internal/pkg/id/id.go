package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Used to mint pending-code tokens when
// the web client does not supply its own.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
