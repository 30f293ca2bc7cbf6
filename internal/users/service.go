package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/chaitanyaponnada/projecthub/internal/redisx"
)

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

type Service struct {
	repo Repository
	rdb  *redis.Client
}

func NewService(repo Repository, rdb *redis.Client) *Service {
	return &Service{repo: repo, rdb: rdb}
}

func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{Email: email, Name: name, PasswordHash: string(hash)})
}

// Login checks the password and issues an opaque session token with a
// TTL. The token maps to a Session blob in Redis.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	sess := Session{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", User{}, err
	}
	key := fmt.Sprintf(redisx.KeySession, token)
	if err := s.rdb.Set(ctx, key, b, redisx.TTLSession).Err(); err != nil {
		return "", User{}, fmt.Errorf("store session: %w", err)
	}
	return token, u, nil
}

// Resolve maps a bearer token back to its session; an unknown or
// expired token yields ErrInvalidCredentials.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	key := fmt.Sprintf(redisx.KeySession, token)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	key := fmt.Sprintf(redisx.KeySession, token)
	return s.rdb.Del(ctx, key).Err()
}
