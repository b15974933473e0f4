// Package secret derives the token Telegram echoes back in the
// X-Telegram-Bot-Api-Secret-Token header of every webhook call.
package secret

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const delimiter = ":"

// Derive returns the lowercase hex SHA-512 digest of "token:username:secret".
// The same value is registered with setWebhook and expected on every update.
func Derive(token, username, secret string) string {
	sum := sha512.Sum512([]byte(strings.Join([]string{token, username, secret}, delimiter)))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether got matches expected. An empty got never matches.
func Verify(expected, got string) bool {
	if got == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
