package playmusic

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
)

const (
	saltLength  = 13
	saltCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// calculateSignature signs a stream request.
//
// The signature is the HMAC-SHA1 of trackID followed by salt, keyed by the
// binary form of key, encoded as URL-safe base64 without padding.
func calculateSignature(key Key, trackID, salt string) (string, error) {
	secret, err := key.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode key: %w", err)
	}

	mac := hmac.New(sha1.New, secret)
	mac.Write([]byte(trackID + salt))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// newSalt returns n characters drawn uniformly from saltCharset.
func newSalt(n int) (string, error) {
	// Largest multiple of len(saltCharset) that fits in a byte; anything at
	// or above it is rejected to keep the distribution uniform.
	const limit = 256 - 256%len(saltCharset)

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, saltCharset[int(b)%len(saltCharset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
