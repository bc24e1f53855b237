package logins

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordEncoder turns a plaintext password into the value stored in the
// students table.
type PasswordEncoder interface {
	Encode(password string) (string, error)
}

// Plain stores passwords as given. This is what the web application's student
// login currently compares against.
type Plain struct{}

func (Plain) Encode(password string) (string, error) {
	return password, nil
}

// Bcrypt stores a bcrypt hash of the password.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Encode(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
