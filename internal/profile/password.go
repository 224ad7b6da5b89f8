package profile

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	passwordHashCost = 12
	// bcrypt ignores everything past this many bytes
	maxPasswordBytes = 72
)

// HashPassword returns the bcrypt hash stored on the profile.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", ErrInvalidProfile, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
