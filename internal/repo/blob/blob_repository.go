package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrBlobNotFound is returned by Fetch when no blob is stored under the key.
var ErrBlobNotFound = errors.New("blob not found")

// Key identifies a stored blob. Any string is a valid key; stores hash it
// before deriving a location.
type Key string

// Hash returns the hex encoded SHA-256 digest of the key.
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(k))

	return hex.EncodeToString(sum[:])
}

// Blob is an opaque byte payload with its key.
type Blob struct {
	Key  Key
	Body []byte
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Body))
}

// Repository stores derived binary artefacts, such as resized images.
type Repository interface {
	// Lock acquires a lock on the blob. Exclusive locks are for writers.
	// The returned function releases it.
	Lock(ctx context.Context, key Key, exclusive bool) (func(), error)

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key Key) bool

	// Store writes the blob, replacing any previous content.
	Store(ctx context.Context, blob *Blob) error

	// Fetch reads the blob stored under key. Returns ErrBlobNotFound when missing.
	Fetch(ctx context.Context, key Key) (*Blob, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key Key) error
}
