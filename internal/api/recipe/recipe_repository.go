package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-recipe-catalog/app/db"
	"github.com/FACorreiaa/go-recipe-catalog/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

var _ Repository = (*PostgresRecipeRepo)(nil)

// Repository persists recipes. Reads return hydrated views; every paginated
// call normalizes its PageRequest.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*types.RecipeView, error)
	FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error)
	FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error)
	FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error)
	Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error)
	Create(ctx context.Context, recipe types.Recipe) (*types.RecipeView, error)
	Update(ctx context.Context, id int64, patch types.RecipePatch) (*types.RecipeView, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type PostgresRecipeRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresRecipeRepo(db database.DB, logger *slog.Logger) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer("RecipeRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "receitas"),
	))
}

// recipeRow is one row of the recipe/owner/category join.
type recipeRow struct {
	recipe       types.Recipe
	ownerNome    string
	ownerLogin   string
	categoryNome *string
}

func (row *recipeRow) scanTargets() []any {
	r := &row.recipe
	return []any{
		&r.ID, &r.UserID, &r.CategoryID, &r.Nome, &r.PrepTimeMinutes, &r.Servings,
		&r.Instructions, &r.Ingredients, &r.CreatedAt, &r.UpdatedAt,
		&row.ownerNome, &row.ownerLogin, &row.categoryNome,
	}
}

// projectRecipeRow builds the read view from a joined row. The owner summary
// is assembled field by field, so no credential can leak into it.
func projectRecipeRow(row recipeRow) types.RecipeView {
	view := types.RecipeView{
		Recipe: row.recipe,
		Usuario: &types.UserSummary{
			ID:    row.recipe.UserID,
			Nome:  row.ownerNome,
			Login: row.ownerLogin,
		},
	}
	if row.recipe.CategoryID != nil && row.categoryNome != nil {
		view.Categoria = &types.Category{ID: *row.recipe.CategoryID, Nome: *row.categoryNome}
	}
	return view
}

func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id int64) (_ *types.RecipeView, err error) {
	ctx, span := startSpan(ctx, "FindByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "receitas.find_by_id", start, err) }(time.Now())

	query := "SELECT" + recipeViewColumns + recipeViewFrom + "\n        WHERE r.id = $1"

	var row recipeRow
	err = r.db.QueryRow(ctx, query, id).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Recipe not found")
			return nil, fmt.Errorf("recipe %d: %w", id, api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch recipe", slog.Int64("recipeID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("error fetching recipe: %w", err)
	}

	view := projectRecipeRow(row)
	span.SetStatus(codes.Ok, "Recipe found")
	return &view, nil
}

func (r *PostgresRecipeRepo) FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.list(ctx, "FindByUser", types.RecipeFilter{UserID: &userID, PageRequest: page})
}

func (r *PostgresRecipeRepo) FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.list(ctx, "FindByCategory", types.RecipeFilter{CategoryID: &categoryID, PageRequest: page})
}

func (r *PostgresRecipeRepo) FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.list(ctx, "FindAll", types.RecipeFilter{PageRequest: page})
}

// Search combines optional owner, category and full-text filters. A blank term
// adds no text predicate.
func (r *PostgresRecipeRepo) Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	return r.list(ctx, "Search", filter)
}

func (r *PostgresRecipeRepo) list(ctx context.Context, op string, filter types.RecipeFilter) (_ *types.Page[types.RecipeView], err error) {
	ctx, span := startSpan(ctx, op)
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "receitas."+strings.ToLower(op), start, err) }(time.Now())

	l := r.logger.With(slog.String("method", op))
	page := filter.PageRequest.Normalize()
	q := newSearchQuery(filter)

	countSQL, countArgs := q.countSQL()
	var total int64
	if err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		l.ErrorContext(ctx, "Failed to count recipes", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Count failed")
		return nil, fmt.Errorf("error counting recipes: %w", err)
	}

	dataSQL, dataArgs := q.dataSQL(page)
	rows, err := r.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query recipes", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("error querying recipes: %w", err)
	}
	defer rows.Close()

	views := make([]types.RecipeView, 0, page.PageSize)
	for rows.Next() {
		var row recipeRow
		if err = rows.Scan(row.scanTargets()...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning recipe row: %w", err)
		}
		views = append(views, projectRecipeRow(row))
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("recipes.total", total),
		attribute.Int("recipes.returned", len(views)),
	)
	span.SetStatus(codes.Ok, "Recipes listed")
	return types.NewPage(views, page, total), nil
}

func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe types.Recipe) (_ *types.RecipeView, err error) {
	ctx, span := startSpan(ctx, "Create")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "receitas.insert", start, err) }(time.Now())

	query := `
        INSERT INTO receitas (id_usuarios, id_categorias, nome, tempo_preparo_minutos, porcoes,
                              modo_preparo, ingredientes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id`

	var id int64
	err = r.db.QueryRow(ctx, query,
		recipe.UserID, recipe.CategoryID, recipe.Nome, recipe.PrepTimeMinutes, recipe.Servings,
		recipe.Instructions, recipe.Ingredients,
	).Scan(&id)
	if err != nil {
		return nil, r.writeError(ctx, span, err, "inserting recipe")
	}

	r.logger.InfoContext(ctx, "Recipe created", slog.Int64("recipeID", id), slog.Int64("userID", recipe.UserID))
	span.SetAttributes(attribute.Int64("recipe.id", id))
	span.SetStatus(codes.Ok, "Recipe created")
	return r.FindByID(ctx, id)
}

// Update writes only the fields present in the patch and always refreshes
// updated_at.
func (r *PostgresRecipeRepo) Update(ctx context.Context, id int64, patch types.RecipePatch) (_ *types.RecipeView, err error) {
	ctx, span := startSpan(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "receitas.update", start, err) }(time.Now())

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.CategoryID.Set {
		set("id_categorias", patch.CategoryID.Ptr())
	}
	if patch.Nome != nil {
		set("nome", *patch.Nome)
	}
	if patch.PrepTimeMinutes.Set {
		set("tempo_preparo_minutos", patch.PrepTimeMinutes.Ptr())
	}
	if patch.Servings.Set {
		set("porcoes", patch.Servings.Ptr())
	}
	if patch.Instructions != nil {
		set("modo_preparo", *patch.Instructions)
	}
	if patch.Ingredients != nil {
		set("ingredientes", *patch.Ingredients)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE receitas SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, r.writeError(ctx, span, err, "updating recipe")
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Recipe not found")
		return nil, fmt.Errorf("recipe %d: %w", id, api.ErrNotFound)
	}

	span.SetAttributes(attribute.Int("recipe.fields_updated", len(sets)-1))
	span.SetStatus(codes.Ok, "Recipe updated")
	return r.FindByID(ctx, id)
}

func (r *PostgresRecipeRepo) Delete(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", id))
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "receitas.delete", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM receitas WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete recipe", slog.Int64("recipeID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return false, fmt.Errorf("error deleting recipe: %w", err)
	}

	span.SetStatus(codes.Ok, "Recipe deleted")
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRecipeRepo) writeError(ctx context.Context, span trace.Span, err error, what string) error {
	if database.IsPgError(err, database.ForeignKeyViolation) {
		span.SetStatus(codes.Error, "Foreign key violation")
		return fmt.Errorf("%s: %w", what, api.NewNotFound(api.MsgCategoryNotFound))
	}
	r.logger.ErrorContext(ctx, "Recipe write failed", slog.String("op", what), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "DB write failed")
	return fmt.Errorf("error %s: %w", what, err)
}
