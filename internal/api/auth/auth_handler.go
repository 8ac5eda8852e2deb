package auth

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.HandleError(w, r, l, err)
		return
	}

	result, err := h.authService.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Register failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Registered")
	api.SuccessResponse(w, r, http.StatusCreated, result, "")
}

// Login handles POST /auth/login.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.HandleError(w, r, l, err)
		return
	}

	result, err := h.authService.Login(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Login failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Logged in")
	api.SuccessResponse(w, r, http.StatusOK, result, "")
}

// Me handles GET /auth/me and echoes the token's principal.
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, api.MsgUnauthorized)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, principal, "")
}
