package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/chaitanyaponnada/projecthub/internal/redisx"
)

// Repository is the persistence surface the service needs; *Repo is
// the pgx implementation.
type Repository interface {
	ListProjects(ctx context.Context, category, search string) ([]Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	GetProjectsByIDs(ctx context.Context, ids []string) (map[string]Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	UpdateProject(ctx context.Context, p Project) (Project, error)
	DeleteProject(ctx context.Context, id string) error
	CreateReview(ctx context.Context, rev Review) (Review, error)
	ListReviews(ctx context.Context, projectID string, approvedOnly bool) ([]Review, error)
	ListPendingReviews(ctx context.Context) ([]Review, error)
	ApproveReview(ctx context.Context, id string) error
	DeleteReview(ctx context.Context, id string) error
	CreateInquiry(ctx context.Context, in Inquiry) (Inquiry, error)
	ListInquiries(ctx context.Context, status string) ([]Inquiry, error)
	CloseInquiry(ctx context.Context, id string) error
}

// Service fronts the repo with a cache-aside Redis layer for project
// detail reads. Singleflight collapses concurrent misses for the same
// project into one DB query.
type Service struct {
	repo Repository
	rdb  *redis.Client
	log  *zap.Logger
	sfg  singleflight.Group
}

func NewService(repo Repository, rdb *redis.Client, log *zap.Logger) *Service {
	return &Service{repo: repo, rdb: rdb, log: log}
}

func (s *Service) ListProjects(ctx context.Context, category, search string) ([]Project, error) {
	return s.repo.ListProjects(ctx, category, search)
}

func (s *Service) GetProject(ctx context.Context, id string) (Project, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		key := fmt.Sprintf(redisx.KeyProject, id)
		if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var p Project
			if err := json.Unmarshal(data, &p); err == nil {
				return p, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn("project cache get failed", zap.String("project_id", id), zap.Error(err))
		}

		p, err := s.repo.GetProject(ctx, id)
		if err != nil {
			return Project{}, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			b, _ := json.Marshal(p)
			if err := s.rdb.Set(ctx, key, b, redisx.TTLProjectCache).Err(); err != nil {
				s.log.Warn("project cache set failed", zap.String("project_id", id), zap.Error(err))
			}
		}()
		return p, nil
	})
	if err != nil {
		return Project{}, err
	}
	return v.(Project), nil
}

func (s *Service) GetProjectsByIDs(ctx context.Context, ids []string) (map[string]Project, error) {
	return s.repo.GetProjectsByIDs(ctx, ids)
}

func (s *Service) CreateProject(ctx context.Context, p Project) (Project, error) {
	return s.repo.CreateProject(ctx, p)
}

func (s *Service) UpdateProject(ctx context.Context, p Project) (Project, error) {
	updated, err := s.repo.UpdateProject(ctx, p)
	if err != nil {
		return Project{}, err
	}
	s.invalidate(p.ID)
	return updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *Service) invalidate(projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	key := fmt.Sprintf(redisx.KeyProject, projectID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn("project cache invalidate failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *Service) CreateReview(ctx context.Context, rev Review) (Review, error) {
	return s.repo.CreateReview(ctx, rev)
}

func (s *Service) ListReviews(ctx context.Context, projectID string, approvedOnly bool) ([]Review, error) {
	return s.repo.ListReviews(ctx, projectID, approvedOnly)
}

func (s *Service) ListPendingReviews(ctx context.Context) ([]Review, error) {
	return s.repo.ListPendingReviews(ctx)
}

func (s *Service) ApproveReview(ctx context.Context, id string) error {
	return s.repo.ApproveReview(ctx, id)
}

func (s *Service) DeleteReview(ctx context.Context, id string) error {
	return s.repo.DeleteReview(ctx, id)
}

func (s *Service) CreateInquiry(ctx context.Context, in Inquiry) (Inquiry, error) {
	return s.repo.CreateInquiry(ctx, in)
}

func (s *Service) ListInquiries(ctx context.Context, status string) ([]Inquiry, error) {
	return s.repo.ListInquiries(ctx, status)
}

func (s *Service) CloseInquiry(ctx context.Context, id string) error {
	return s.repo.CloseInquiry(ctx, id)
}
