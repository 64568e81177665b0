package helper

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// Password digests are PBKDF2-SHA512 over (password, per-account salt). The
// salt lives next to the hash on the credential row and is regenerated on
// every password change.
const (
	saltBytes = 16
	hashIters = 210_000
	keyBytes  = 64
)

// dummySalt feeds the equal-cost digest on the "no such account" path.
const dummySalt = "0123456789abcdef0123456789abcdef"

func GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIters, keyBytes, sha512.New)
	return hex.EncodeToString(key)
}

func VerifyPassword(password, salt, hash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// BurnVerify runs a full digest against a throwaway salt. Callers use it on
// lookup misses so unknown identifiers cost the same as wrong passwords.
func BurnVerify(password string) {
	_ = HashPassword(password, dummySalt)
}
