package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepo struct {
	Repository

	mu       sync.Mutex
	project  Project
	getErr   error
	getCalls int
}

func (m *mockRepo) GetProject(_ context.Context, id string) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return Project{}, m.getErr
	}
	return m.project, nil
}

func setupService(t *testing.T, repo *mockRepo) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, client, zap.NewNop()), mr
}

func TestGetProject_MissReadsRepo(t *testing.T) {
	repo := &mockRepo{project: Project{ID: "p1", Title: "Library System", PriceCents: 15000}}
	svc, _ := setupService(t, repo)

	p, err := svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Library System", p.Title)
	assert.Equal(t, 1, repo.getCalls)
}

func TestGetProject_NotFound(t *testing.T) {
	repo := &mockRepo{getErr: ErrNotFound}
	svc, _ := setupService(t, repo)

	_, err := svc.GetProject(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProject_CacheHitSkipsRepo(t *testing.T) {
	repo := &mockRepo{project: Project{ID: "p1", Title: "Library System"}}
	svc, mr := setupService(t, repo)

	_, err := svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)

	// the async cache fill may still be in flight; seed it directly
	mr.Set("project:p1", `{"id":"p1","title":"Cached Title"}`)

	p, err := svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Cached Title", p.Title)
	assert.Equal(t, 1, repo.getCalls)
}
