package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomSecret returns n bytes of crypto randomness, URL-safe base64 encoded.
func RandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
