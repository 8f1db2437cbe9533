package util

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashAdminToken hashes an operator token for ADMIN_TOKEN_HASH.
func HashAdminToken(token string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyAdminToken checks a presented token against its bcrypt hash. An empty
// hash never verifies.
func VerifyAdminToken(hashedToken, token string) bool {
	if hashedToken == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token)) == nil
}
