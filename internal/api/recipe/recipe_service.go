package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-recipe-catalog/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	FindByID(ctx context.Context, id int64) (*types.RecipeView, error)
	FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error)
	FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error)
	FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error)
	Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error)
	Create(ctx context.Context, ownerID int64, req types.CreateRecipeRequest) (*types.RecipeView, error)
	Update(ctx context.Context, id, ownerID int64, patch types.RecipePatch) (*types.RecipeView, error)
	// CheckOwner returns NotFound or Forbidden when ownerID may not edit the recipe.
	CheckOwner(ctx context.Context, id, ownerID int64) error
	Delete(ctx context.Context, id, ownerID int64) error
}

// CategoryChecker is the slice of the category service recipes depend on.
type CategoryChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	categories CategoryChecker
}

func NewRecipeService(repo Repository, categories CategoryChecker, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		categories: categories,
	}
}

func (s *ServiceImpl) FindByID(ctx context.Context, id int64) (*types.RecipeView, error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "FindByID")
	defer span.End()

	view, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, recipeNotFoundOr(err)
	}
	span.SetStatus(codes.Ok, "Recipe found")
	return view, nil
}

func (s *ServiceImpl) FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return s.repo.FindAll(ctx, page)
}

func (s *ServiceImpl) FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return s.repo.FindByUser(ctx, userID, page)
}

func (s *ServiceImpl) FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "FindByCategory")
	defer span.End()

	if err := s.requireCategory(ctx, categoryID); err != nil {
		span.SetStatus(codes.Error, "Category check failed")
		return nil, err
	}
	return s.repo.FindByCategory(ctx, categoryID, page)
}

func (s *ServiceImpl) Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.Bool("search.has_term", filter.Term != ""))

	if filter.CategoryID != nil {
		if err := s.requireCategory(ctx, *filter.CategoryID); err != nil {
			span.SetStatus(codes.Error, "Category check failed")
			return nil, err
		}
	}

	start := time.Now()
	page, err := s.repo.Search(ctx, filter)
	m := metrics.Get()
	withTerm := metric.WithAttributes(attribute.Bool("has_term", filter.Term != ""))
	m.RecipeSearchDuration.Record(ctx, time.Since(start).Seconds(), withTerm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, fmt.Errorf("error searching recipes: %w", err)
	}
	m.RecipeSearchResults.Record(ctx, page.Meta.TotalItems, withTerm)

	span.SetStatus(codes.Ok, "Search completed")
	return page, nil
}

// Create stores a recipe owned by ownerID. The category, when given, must exist.
func (s *ServiceImpl) Create(ctx context.Context, ownerID int64, req types.CreateRecipeRequest) (*types.RecipeView, error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", ownerID))

	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			span.SetStatus(codes.Error, "Category check failed")
			return nil, err
		}
	}

	view, err := s.repo.Create(ctx, types.Recipe{
		UserID:          ownerID,
		CategoryID:      req.CategoryID,
		Nome:            req.Nome,
		PrepTimeMinutes: req.PrepTimeMinutes,
		Servings:        req.Servings,
		Instructions:    req.Instructions,
		Ingredients:     req.Ingredients,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("error creating recipe: %w", err)
	}

	span.SetStatus(codes.Ok, "Recipe created")
	return view, nil
}

func (s *ServiceImpl) Update(ctx context.Context, id, ownerID int64, patch types.RecipePatch) (*types.RecipeView, error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id), attribute.Int64("user.id", ownerID))

	if err := s.requireOwner(ctx, id, ownerID, api.MsgRecipeEditDenied); err != nil {
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		span.SetStatus(codes.Error, "Invalid patch")
		return nil, err
	}
	if categoryID := patch.CategoryID.Ptr(); categoryID != nil {
		if err := s.requireCategory(ctx, *categoryID); err != nil {
			span.SetStatus(codes.Error, "Category check failed")
			return nil, err
		}
	}

	view, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return nil, recipeNotFoundOr(err)
	}

	span.SetStatus(codes.Ok, "Recipe updated")
	return view, nil
}

func (s *ServiceImpl) CheckOwner(ctx context.Context, id, ownerID int64) error {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "CheckOwner")
	defer span.End()

	return s.requireOwner(ctx, id, ownerID, api.MsgRecipeEditDenied)
}

func (s *ServiceImpl) Delete(ctx context.Context, id, ownerID int64) error {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id), attribute.Int64("user.id", ownerID))

	if err := s.requireOwner(ctx, id, ownerID, api.MsgRecipeDeleteDenied); err != nil {
		span.SetStatus(codes.Error, "Ownership check failed")
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("error deleting recipe: %w", err)
	}
	if !deleted {
		return api.NewNotFound(api.MsgRecipeNotFound)
	}

	s.logger.InfoContext(ctx, "Recipe deleted", slog.Int64("recipeID", id), slog.Int64("userID", ownerID))
	span.SetStatus(codes.Ok, "Recipe deleted")
	return nil
}

func (s *ServiceImpl) requireOwner(ctx context.Context, id, ownerID int64, deniedMsg string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return recipeNotFoundOr(err)
	}
	if existing.UserID != ownerID {
		s.logger.WarnContext(ctx, "Recipe change denied",
			slog.Int64("recipeID", id),
			slog.Int64("ownerID", existing.UserID),
			slog.Int64("callerID", ownerID))
		return api.NewForbidden(deniedMsg)
	}
	return nil
}

func (s *ServiceImpl) requireCategory(ctx context.Context, categoryID int64) error {
	ok, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return api.NewNotFound(api.MsgCategoryNotFound)
	}
	return nil
}

// recipeNotFoundOr gives bare repository misses the recipe message and passes
// classified errors, such as a missing category, through unchanged.
func recipeNotFoundOr(err error) error {
	var appErr *api.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, api.ErrNotFound) {
		return api.NewNotFound(api.MsgRecipeNotFound)
	}
	return err
}

// validatePatch runs the declarative rules plus the nullable numeric fields,
// which the struct validator cannot see through Optional.
func validatePatch(p types.RecipePatch) error {
	if p.IsEmpty() {
		return api.NewValidation(api.MsgEmptyUpdate, nil)
	}
	fields := map[string]string{}
	if err := api.ValidateStruct(p); err != nil {
		if api.KindOf(err) != api.KindValidation {
			return err
		}
		mergeFields(fields, err)
	}
	if v := p.CategoryID.Ptr(); v != nil && *v <= 0 {
		fields["id_categorias"] = "ID da categoria deve ser um número positivo"
	}
	if v := p.PrepTimeMinutes.Ptr(); v != nil && *v <= 0 {
		fields["tempo_preparo_minutos"] = "Tempo de preparo deve ser um número positivo"
	}
	if v := p.Servings.Ptr(); v != nil && *v <= 0 {
		fields["porcoes"] = "Porções deve ser um número positivo"
	}
	if len(fields) > 0 {
		return api.NewValidation(api.MsgValidation, fields)
	}
	return nil
}
