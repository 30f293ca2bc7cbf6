package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byEmail map[string]User
}

func newMockRepo() *mockRepo { return &mockRepo{byEmail: map[string]User{}} }

func (m *mockRepo) Create(_ context.Context, u User) (User, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return User{}, ErrEmailTaken
	}
	u.ID = uuid.NewString()
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func setupService(t *testing.T) *Service {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(newMockRepo(), client)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@x.com", "Alice", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	token, logged, err := svc.Login(ctx, "alice@x.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, u.ID, logged.ID)

	sess, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.False(t, sess.IsAdmin)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@x.com", "Alice", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@x.com", "Alice Again", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@x.com", "Alice", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@x.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@x.com", "Alice", "hunter22")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "alice@x.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
