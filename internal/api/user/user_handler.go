package user

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers handles GET /usuarios. The directory is public and only carries
// id and nome.
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "ListUsers"))

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, users, "")
}

// GetUser handles GET /usuarios/{id}.
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "GetUser"))

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}

	u, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, u, "")
}
