package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashToken computes a BLAKE2b-256 hash of the token string. Only the hash is
// ever written to the auth cache.
func HashToken(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ParseTokenHeader extracts the value of an "Authorization: Token <value>"
// header. "Bearer" is accepted as well.
func ParseTokenHeader(header string) (string, bool) {
	header = strings.TrimSpace(header)
	for _, scheme := range []string{"Token ", "Bearer "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			token := strings.TrimSpace(header[len(scheme):])
			return token, token != ""
		}
	}
	return "", false
}
