package imgcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrCacheMiss = errors.New("cache miss")
)

// Key identifies cached content. It is an opaque, stable identifier -
// usually a URI. Two equal keys always resolve to the same content.
type Key string

func NewKey(uri string) Key {
	return Key(uri)
}

// Hash returns a filesystem-safe, collision-resistant name for the key
// (hex-encoded SHA-256 of the key string).
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:])
}

func (k Key) String() string {
	return string(k)
}

// ByteSource fetches raw content bytes for a key, possibly over the network.
type ByteSource interface {
	Fetch(ctx context.Context, key Key) ([]byte, error)
}
