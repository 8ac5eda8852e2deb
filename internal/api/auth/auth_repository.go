package auth

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

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo stores and looks up user credentials.
type AuthRepo interface {
	// FindByLogin returns api.ErrNotFound when no user has the login.
	FindByLogin(ctx context.Context, login string) (*types.UserCredentials, error)
	// Create returns api.ErrConflict when the login is taken.
	Create(ctx context.Context, user types.NewUser) (*types.User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresAuthRepo(db database.DB, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresAuthRepo) FindByLogin(ctx context.Context, login string) (_ *types.UserCredentials, err error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "FindByLogin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "usuarios"),
	))
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "usuarios.find_by_login", start, err) }(time.Now())

	l := r.logger.With(slog.String("method", "FindByLogin"))

	query := `
        SELECT id, nome, login, senha, created_at, updated_at
        FROM usuarios
        WHERE login = $1`

	var u types.UserCredentials
	err = r.db.QueryRow(ctx, query, login).Scan(
		&u.ID, &u.Nome, &u.Login, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No user with login")
			return nil, fmt.Errorf("user with login not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by login", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user by login: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}

func (r *PostgresAuthRepo) Create(ctx context.Context, user types.NewUser) (_ *types.User, err error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "usuarios"),
	))
	defer span.End()
	defer func(start time.Time) { metrics.RecordDBQuery(ctx, "usuarios.insert", start, err) }(time.Now())

	l := r.logger.With(slog.String("method", "Create"))

	query := `
        INSERT INTO usuarios (nome, login, senha, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, nome, login, created_at, updated_at`

	var u types.User
	err = r.db.QueryRow(ctx, query, user.Nome, user.Login, user.PasswordHash).Scan(
		&u.ID, &u.Nome, &u.Login, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if database.IsPgError(err, database.UniqueViolation) {
			l.WarnContext(ctx, "Login already registered")
			span.SetStatus(codes.Error, "Duplicate login")
			return nil, fmt.Errorf("login already registered: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error inserting user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", u.ID))
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	span.SetStatus(codes.Ok, "User created")
	return &u, nil
}
