package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword compares password with a stored value. Stored values that are not bcrypt
// hashes are the old base64 "encoding" of the password; a match on one of those sets
// needsRehash so the caller can replace it.
func CheckPassword(stored, password string) (ok, needsRehash bool) {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	if stored == "" {
		return false, false
	}
	legacy := base64.StdEncoding.EncodeToString([]byte(password))
	if subtle.ConstantTimeCompare([]byte(stored), []byte(legacy)) == 1 {
		return true, true
	}
	return false, false
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
