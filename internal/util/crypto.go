package util

import (
	"crypto/subtle"
)

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// MaskToken keeps the first three characters of a pool token for logs.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:3] + "****"
}
