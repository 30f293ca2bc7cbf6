package users

import (
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("users: email already registered")
	ErrInvalidCredentials = errors.New("users: invalid email or password")
	ErrNotFound           = errors.New("users: not found")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is what an opaque bearer token resolves to. Enough is
// stored in Redis that request auth needs no DB round trip.
type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
