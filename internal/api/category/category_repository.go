package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

var _ Repository = (*PostgresCategoryRepo)(nil)

// Repository persists categories. Lookups that miss return api.ErrNotFound
// and unique violations come back as api.ErrConflict.
type Repository interface {
	FindAll(ctx context.Context) ([]types.Category, error)
	FindByID(ctx context.Context, id int64) (*types.Category, error)
	FindByName(ctx context.Context, nome string) (*types.Category, error)
	Create(ctx context.Context, nome string) (*types.Category, error)
	Update(ctx context.Context, id int64, nome string) (*types.Category, error)
	Delete(ctx context.Context, id int64) (*types.Category, error)
}

type PostgresCategoryRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresCategoryRepo(db database.DB, logger *slog.Logger) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresCategoryRepo) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer("CategoryRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categorias"),
	))
}

func (r *PostgresCategoryRepo) FindAll(ctx context.Context) (_ []types.Category, err error) {
	ctx, span := r.startSpan(ctx, "FindAll")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.list", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `SELECT id, nome FROM categorias ORDER BY nome ASC`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query categories", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("error querying categories: %w", err)
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var c types.Category
		if err = rows.Scan(&c.ID, &c.Nome); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Categories listed")
	return categories, nil
}

func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id int64) (_ *types.Category, err error) {
	ctx, span := r.startSpan(ctx, "FindByID")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.find_by_id", start, err) }(time.Now())

	var c types.Category
	err = r.db.QueryRow(ctx, `SELECT id, nome FROM categorias WHERE id = $1`, id).Scan(&c.ID, &c.Nome)
	if err != nil {
		return nil, r.rowError(ctx, span, err, "category by id")
	}
	span.SetStatus(codes.Ok, "Category found")
	return &c, nil
}

func (r *PostgresCategoryRepo) FindByName(ctx context.Context, nome string) (_ *types.Category, err error) {
	ctx, span := r.startSpan(ctx, "FindByName")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.find_by_name", start, err) }(time.Now())

	var c types.Category
	err = r.db.QueryRow(ctx, `SELECT id, nome FROM categorias WHERE nome = $1`, nome).Scan(&c.ID, &c.Nome)
	if err != nil {
		return nil, r.rowError(ctx, span, err, "category by name")
	}
	span.SetStatus(codes.Ok, "Category found")
	return &c, nil
}

func (r *PostgresCategoryRepo) Create(ctx context.Context, nome string) (_ *types.Category, err error) {
	ctx, span := r.startSpan(ctx, "Create")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.insert", start, err) }(time.Now())

	var c types.Category
	err = r.db.QueryRow(ctx, `INSERT INTO categorias (nome) VALUES ($1) RETURNING id, nome`, nome).Scan(&c.ID, &c.Nome)
	if err != nil {
		return nil, r.writeError(ctx, span, err, "inserting category")
	}
	r.logger.InfoContext(ctx, "Category created", slog.Int64("categoryID", c.ID))
	span.SetStatus(codes.Ok, "Category created")
	return &c, nil
}

func (r *PostgresCategoryRepo) Update(ctx context.Context, id int64, nome string) (_ *types.Category, err error) {
	ctx, span := r.startSpan(ctx, "Update")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.update", start, err) }(time.Now())

	var c types.Category
	err = r.db.QueryRow(ctx, `UPDATE categorias SET nome = $1 WHERE id = $2 RETURNING id, nome`, nome, id).Scan(&c.ID, &c.Nome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.rowError(ctx, span, err, "category to update")
		}
		return nil, r.writeError(ctx, span, err, "updating category")
	}
	span.SetStatus(codes.Ok, "Category updated")
	return &c, nil
}

// Delete removes the category and returns the row as it was. Recipes that
// referenced it keep existing with a null category.
func (r *PostgresCategoryRepo) Delete(ctx context.Context, id int64) (_ *types.Category, err error) {
	ctx, span := r.startSpan(ctx, "Delete")
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "categorias.delete", start, err) }(time.Now())

	var c types.Category
	err = r.db.QueryRow(ctx, `DELETE FROM categorias WHERE id = $1 RETURNING id, nome`, id).Scan(&c.ID, &c.Nome)
	if err != nil {
		return nil, r.rowError(ctx, span, err, "category to delete")
	}
	r.logger.InfoContext(ctx, "Category deleted", slog.Int64("categoryID", c.ID))
	span.SetStatus(codes.Ok, "Category deleted")
	return &c, nil
}

func (r *PostgresCategoryRepo) rowError(ctx context.Context, span trace.Span, err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Ok, "No rows")
		return fmt.Errorf("%s: %w", what, api.ErrNotFound)
	}
	r.logger.ErrorContext(ctx, "Category query failed", slog.String("target", what), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "DB query failed")
	return fmt.Errorf("error fetching %s: %w", what, err)
}

func (r *PostgresCategoryRepo) writeError(ctx context.Context, span trace.Span, err error, what string) error {
	if database.IsPgError(err, database.UniqueViolation) {
		span.SetStatus(codes.Error, "Duplicate name")
		return fmt.Errorf("%s: %w", what, api.ErrConflict)
	}
	r.logger.ErrorContext(ctx, "Category write failed", slog.String("op", what), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "DB write failed")
	return fmt.Errorf("error %s: %w", what, err)
}
