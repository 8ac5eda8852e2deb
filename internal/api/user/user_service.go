package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

var _ UserService = (*ServiceImpl)(nil)

type UserService interface {
	ListUsers(ctx context.Context) ([]types.UserListItem, error)
	GetUser(ctx context.Context, id int64) (*types.User, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) ListUsers(ctx context.Context) ([]types.UserListItem, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "ListUsers")
	defer span.End()

	users, err := s.repo.ListSummaries(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

func (s *ServiceImpl) GetUser(ctx context.Context, id int64) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUser")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", id))

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "User not found")
			return nil, api.NewNotFound(api.MsgUserNotFound)
		}
		s.logger.ErrorContext(ctx, "Failed to get user", slog.Int64("userID", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Get failed")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	span.SetStatus(codes.Ok, "User found")
	return u, nil
}
