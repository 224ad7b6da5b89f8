package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// 32 random bytes, unpadded base64url in the Authorization header
const tokenBytes = 32

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
