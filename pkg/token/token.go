// Package token provides random token generation for self-declared
// client identities.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 9

// Generate generates a random client token.
//
// The returned token is Base64 RawURL encoded for safe transmission in
// query parameters. Tokens are identifiers, not credentials: clients may
// declare any value, and collisions are an accepted limitation.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
