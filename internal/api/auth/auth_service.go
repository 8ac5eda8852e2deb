package auth

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
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-recipe-catalog/app/observability/metrics"
	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResult, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    config.JWTConfig
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg.JWT,
		now:    time.Now,
	}
}

// Register creates the account and returns it with a fresh token.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"))
	outcome := "error"
	defer func() {
		metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	_, err := s.repo.FindByLogin(ctx, req.Login)
	switch {
	case err == nil:
		outcome = "conflict"
		span.SetStatus(codes.Error, "Login taken")
		return nil, api.NewConflict(api.MsgDuplicateLogin)
	case !errors.Is(err, api.ErrNotFound):
		l.ErrorContext(ctx, "Failed to check login availability", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login lookup failed")
		return nil, fmt.Errorf("error checking login: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Senha), s.bcryptCost())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.NewUser{Nome: req.Nome, Login: req.Login, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			outcome = "conflict"
			return nil, api.NewConflict(api.MsgDuplicateLogin)
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := IssueToken(s.cfg, types.Principal{ID: user.ID, Login: user.Login}, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	outcome = "success"
	l.InfoContext(ctx, "User registered", slog.Int64("userID", user.ID))
	span.SetAttributes(attribute.Int64("user.id", user.ID))
	span.SetStatus(codes.Ok, "Registered")
	return &types.AuthResult{Usuario: *user, Token: token}, nil
}

// Login checks the credentials. Unknown logins and wrong passwords produce the
// same error.
func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))
	outcome := "error"
	defer func() {
		metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	creds, err := s.repo.FindByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			outcome = "invalid_credentials"
			l.InfoContext(ctx, "Login attempt for unknown user")
			span.SetStatus(codes.Error, "Unknown login")
			return nil, api.NewUnauthorized(api.MsgInvalidCredentials)
		}
		l.ErrorContext(ctx, "Failed to fetch user for login", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Senha)); err != nil {
		outcome = "invalid_credentials"
		l.InfoContext(ctx, "Login attempt with wrong password", slog.Int64("userID", creds.ID))
		span.SetStatus(codes.Error, "Wrong password")
		return nil, api.NewUnauthorized(api.MsgInvalidCredentials)
	}

	token, err := IssueToken(s.cfg, types.Principal{ID: creds.ID, Login: creds.Login}, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	outcome = "success"
	span.SetAttributes(attribute.Int64("user.id", creds.ID))
	span.SetStatus(codes.Ok, "Logged in")
	return &types.AuthResult{Usuario: creds.User, Token: token}, nil
}

func (s *AuthServiceImpl) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}
