package tokens

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// API tokens are presented as "<prefix><secret>", e.g. "sk_user_abc123".
// Only an HMAC of the secret is stored, so tokens cannot be recovered
// from the database.

// Parse strips the expected prefix from a raw bearer token. ok is false
// when the token does not carry the prefix.
func Parse(raw, prefix string) (secret string, ok bool) {
	if prefix == "" || !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	return strings.TrimPrefix(raw, prefix), true
}

// LookupHash returns the hex HMAC-SHA256 of secret under pepper. This is
// the deterministic column value used to find a principal by token.
func LookupHash(pepper, secret string) string {
	m := hmac.New(sha256.New, []byte(pepper))
	m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil))
}

// NewSecret generates a random token secret (32 hex chars).
func NewSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
