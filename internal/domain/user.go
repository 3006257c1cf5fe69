package domain

import (
	"strings"
	"time"
)

type UserID int64

type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser ожидает уже посчитанный хеш пароля.
func NewUser(username, email, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, Validation("username is required")
	}
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, Validation("invalid email")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, Validation("empty password hash")
	}

	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
