package user

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

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	// ListSummaries returns every user as {id, nome}, ordered by name.
	ListSummaries(ctx context.Context) ([]types.UserListItem, error)
	FindByID(ctx context.Context, id int64) (*types.User, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresUserRepo(db database.DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresUserRepo) ListSummaries(ctx context.Context) (_ []types.UserListItem, err error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListSummaries", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "usuarios"),
	))
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "usuarios.list", start, err) }(time.Now())

	l := r.logger.With(slog.String("method", "ListSummaries"))

	rows, err := r.db.Query(ctx, `SELECT id, nome FROM usuarios ORDER BY nome ASC, id ASC`)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := make([]types.UserListItem, 0)
	for rows.Next() {
		var u types.UserListItem
		if err = rows.Scan(&u.ID, &u.Nome); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (_ *types.User, err error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "FindByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "usuarios"),
		attribute.Int64("user.id", id),
	))
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "usuarios.find_by_id", start, err) }(time.Now())

	query := `
        SELECT id, nome, login, created_at, updated_at
        FROM usuarios
        WHERE id = $1`

	var u types.User
	err = r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Nome, &u.Login, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, fmt.Errorf("user %d: %w", id, api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.Int64("userID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}
