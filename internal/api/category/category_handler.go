package category

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewCategoryHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// ListCategories handles GET /categorias.
func (h *HandlerImpl) ListCategories(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "ListCategories"))

	categories, err := h.service.FindAll(r.Context())
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, categories, "")
}

// GetCategory handles GET /categorias/{id}.
func (h *HandlerImpl) GetCategory(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "GetCategory"))

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	c, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, c, "")
}

// CreateCategory handles POST /categorias.
func (h *HandlerImpl) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "CreateCategory")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateCategory"))

	var req types.CategoryRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.HandleError(w, r, l, err)
		return
	}

	c, err := h.service.Create(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Create failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Created")
	api.SuccessResponse(w, r, http.StatusCreated, c, "")
}

// UpdateCategory handles PUT /categorias/{id}.
func (h *HandlerImpl) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "UpdateCategory")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateCategory"))

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	var req types.CategoryRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.HandleError(w, r, l, err)
		return
	}

	c, err := h.service.Update(ctx, id, req)
	if err != nil {
		span.SetStatus(codes.Error, "Update failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Updated")
	api.SuccessResponse(w, r, http.StatusOK, c, "")
}

// DeleteCategory handles DELETE /categorias/{id} and echoes the deleted row.
func (h *HandlerImpl) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "DeleteCategory")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteCategory"))

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}

	c, err := h.service.Delete(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Deleted")
	api.SuccessResponse(w, r, http.StatusOK, c, api.MsgCategoryDeleted)
}
