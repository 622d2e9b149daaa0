package util

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	return hashWithCost(password, bcryptCost)
}

// HashThrowawayPassword hashes a password nobody will ever type, such as the
// one given to anonymous users. It uses the minimum bcrypt cost.
func HashThrowawayPassword(password string) (string, error) {
	return hashWithCost(password, bcrypt.MinCost)
}

func hashWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
