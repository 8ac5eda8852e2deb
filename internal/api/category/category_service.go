package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-recipe-catalog/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

const listCacheKey = "categorias:all"

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	FindAll(ctx context.Context) ([]types.Category, error)
	FindByID(ctx context.Context, id int64) (*types.Category, error)
	Create(ctx context.Context, req types.CategoryRequest) (*types.Category, error)
	Update(ctx context.Context, id int64, req types.CategoryRequest) (*types.Category, error)
	Delete(ctx context.Context, id int64) (*types.Category, error)
	// Exists reports whether the category id is present.
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
	ttl    time.Duration
}

func NewCategoryService(repo Repository, cfg *config.Config, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(cfg.Cache.CategoriesTTL, cfg.Cache.CleanupInterval),
		ttl:    cfg.Cache.CategoriesTTL,
	}
}

func (s *ServiceImpl) FindAll(ctx context.Context) ([]types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "FindAll")
	defer span.End()

	if cached, ok := s.cache.Get(listCacheKey); ok {
		s.recordLookup(ctx, "hit")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Served from cache")
		return slices.Clone(cached.([]types.Category)), nil
	}
	s.recordLookup(ctx, "miss")

	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	if s.ttl > 0 {
		s.cache.Set(listCacheKey, slices.Clone(categories), s.ttl)
	}

	span.SetStatus(codes.Ok, "Categories listed")
	return categories, nil
}

func (s *ServiceImpl) FindByID(ctx context.Context, id int64) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "FindByID")
	defer span.End()

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, notFoundOr(err, "error fetching category")
	}
	span.SetStatus(codes.Ok, "Category found")
	return c, nil
}

func (s *ServiceImpl) Create(ctx context.Context, req types.CategoryRequest) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Create")
	defer span.End()

	if err := s.ensureNameFree(ctx, req.Nome); err != nil {
		span.SetStatus(codes.Error, "Name check failed")
		return nil, err
	}

	c, err := s.repo.Create(ctx, req.Nome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		if errors.Is(err, api.ErrConflict) {
			return nil, api.NewConflict(api.MsgDuplicateCategory)
		}
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	s.invalidate()

	span.SetAttributes(attribute.Int64("category.id", c.ID))
	span.SetStatus(codes.Ok, "Category created")
	return c, nil
}

// Update renames a category. The duplicate check only runs when the name
// actually changes.
func (s *ServiceImpl) Update(ctx context.Context, id int64, req types.CategoryRequest) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("category.id", id))

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, notFoundOr(err, "error fetching category")
	}
	if existing.Nome != req.Nome {
		if err := s.ensureNameFree(ctx, req.Nome); err != nil {
			span.SetStatus(codes.Error, "Name check failed")
			return nil, err
		}
	}

	c, err := s.repo.Update(ctx, id, req.Nome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		if errors.Is(err, api.ErrConflict) {
			return nil, api.NewConflict(api.MsgDuplicateCategory)
		}
		return nil, notFoundOr(err, "error updating category")
	}
	s.invalidate()

	span.SetStatus(codes.Ok, "Category updated")
	return c, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int64) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("category.id", id))

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, notFoundOr(err, "error fetching category")
	}

	c, err := s.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return nil, notFoundOr(err, "error deleting category")
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Category deleted", slog.Int64("categoryID", id))
	span.SetStatus(codes.Ok, "Category deleted")
	return c, nil
}

func (s *ServiceImpl) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, api.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("error checking category existence: %w", err)
	}
}

func (s *ServiceImpl) ensureNameFree(ctx context.Context, nome string) error {
	_, err := s.repo.FindByName(ctx, nome)
	switch {
	case err == nil:
		return api.NewConflict(api.MsgDuplicateCategory)
	case errors.Is(err, api.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("error checking category name: %w", err)
	}
}

func (s *ServiceImpl) invalidate() {
	s.cache.Delete(listCacheKey)
}

func (s *ServiceImpl) recordLookup(ctx context.Context, result string) {
	metrics.Get().CategoryCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, api.ErrNotFound) {
		return api.NewNotFound(api.MsgCategoryNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
