package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/catalog"
	"github.com/chaitanyaponnada/projecthub/internal/users"
)

func contextWithSession(ctx context.Context, userID string, admin bool) context.Context {
	sess := users.Session{UserID: userID, Email: userID + "@x.com", IsAdmin: admin}
	return context.WithValue(ctx, sessionKey, sess)
}

// withURLParam runs fn with a chi route context carrying one URL param,
// so handlers can be exercised without a full router.
func withURLParam(req *http.Request, key, val string, fn func(*http.Request)) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	fn(req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx)))
}

type stubCatalogRepo struct {
	catalog.Repository

	projects map[string]catalog.Project
}

func (s *stubCatalogRepo) GetProject(_ context.Context, id string) (catalog.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return catalog.Project{}, catalog.ErrNotFound
	}
	return p, nil
}

func catalogServiceWith(t *testing.T, projects ...catalog.Project) *catalog.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubCatalogRepo{projects: map[string]catalog.Project{}}
	for _, p := range projects {
		repo.projects[p.ID] = p
	}
	return catalog.NewService(repo, client, zap.NewNop())
}
