package playmusic

import (
	"encoding/base64"
	"fmt"
	"sync"
)

// KeySize is the length in bytes of the stream signing key.
const KeySize = 73

// The two halves of the stream signing key, as shipped in the Android
// client. They are opaque: signatures only verify for as long as the
// service keeps expecting this exact key.
const (
	keyHalfA = "VzeC4H4h+T2f0VI180nVX8x+Mb5HiTtGnKgH52Otj8ZCGDz9jRWyHb6QXK0JskSiOgzQfwTY5xgLLSdUSreaLVMsVVWfxfa8Rw=="
	keyHalfB = "ZAPnhUkYwQ6y5DdQxWThbvhJHN8msQ1rqJw0ggKdufQjelrKuiGGJI30aswkgCWTDyHkTGK9ynlqTkJ5L4CiGGUabGeo8M6JTQ=="
)

// Key is the shared secret used to sign stream requests.
//
// The binary form returned by MarshalBinary is the exact HMAC key; both
// derivation and signing go through it.
type Key [KeySize]byte

// DeriveKey combines two equal-length secrets into a Key by XOR.
//
// Byte-wise XOR gives the same result as XOR over big-endian 32-bit words,
// which is how the key halves are combined by the official client.
func DeriveKey(a, b []byte) (Key, error) {
	var k Key
	if len(a) != len(b) {
		return k, fmt.Errorf("playmusic: key halves differ in length (%d != %d)", len(a), len(b))
	}
	if len(a) != KeySize {
		return k, fmt.Errorf("playmusic: key halves are %d bytes, want %d", len(a), KeySize)
	}
	for i := range k {
		k[i] = a[i] ^ b[i]
	}
	return k, nil
}

var defaultKey = sync.OnceValues(func() (Key, error) {
	a, err := base64.StdEncoding.DecodeString(keyHalfA)
	if err != nil {
		return Key{}, fmt.Errorf("playmusic: decode key half: %w", err)
	}
	b, err := base64.StdEncoding.DecodeString(keyHalfB)
	if err != nil {
		return Key{}, fmt.Errorf("playmusic: decode key half: %w", err)
	}
	return DeriveKey(a, b)
})

// DefaultKey returns the signing key derived from the embedded constants.
//
// The result is computed once per process. It panics if the constants are
// malformed, since no stream request can be signed without them.
func DefaultKey() Key {
	k, err := defaultKey()
	if err != nil {
		panic(err)
	}
	return k
}

// MarshalBinary returns a copy of the raw key bytes.
func (k Key) MarshalBinary() ([]byte, error) {
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out, nil
}

// UnmarshalBinary sets k from raw key bytes. data must be exactly KeySize
// bytes long.
func (k *Key) UnmarshalBinary(data []byte) error {
	if len(data) != KeySize {
		return fmt.Errorf("playmusic: key is %d bytes, want %d", len(data), KeySize)
	}
	copy(k[:], data)
	return nil
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String never prints the secret.
func (k Key) String() string {
	return "playmusic.Key(redacted)"
}
