package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, email, name, password_hash, is_admin)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`, u.ID, u.Email, u.Name, u.PasswordHash, u.IsAdmin).
		Scan(&u.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "users_email_key") {
		return User{}, ErrEmailTaken
	}
	return u, err
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}
