package repository

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"upbilling/models"
)

// prepareUser normalizes the email, hashes the plain password and stamps created_at.
func prepareUser(user *models.AppUser) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Password == "" {
		return errors.New("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CheckPassword compares a stored hash with a plain password.
func CheckPassword(user *models.AppUser, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)) == nil
}
