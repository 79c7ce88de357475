package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns a bcrypt hash suitable for DEV_AUTH_SECRET
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// IsBcryptHash reports whether s looks like a bcrypt hash
func IsBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// CheckSecret compares a provided secret with the configured one. The
// configured value is either a bcrypt hash or the secret itself; plain
// secrets are compared in constant time.
func CheckSecret(provided, configured string) bool {
	if provided == "" || configured == "" {
		return false
	}
	if IsBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(provided)) == nil
	}
	return hmac.Equal(Sha256Hash(provided), Sha256Hash(configured))
}

func Sha256Hash(str string) []byte {
	sum := sha256.Sum256([]byte(str))
	return sum[:]
}
