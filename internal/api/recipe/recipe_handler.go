package recipe

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewRecipeHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// ListRecipes handles GET /receitas.
func (h *HandlerImpl) ListRecipes(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "ListRecipes"))

	page, err := api.ParsePageRequest(r)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	result, err := h.service.FindAll(r.Context(), page)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.PaginatedResponse(w, r, result)
}

// SearchRecipes handles GET /receitas/search.
func (h *HandlerImpl) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecipeHandler").Start(r.Context(), "SearchRecipes")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SearchRecipes"))

	filter, err := parseSearchFilter(r)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid query")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetAttributes(
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	)

	result, err := h.service.Search(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, "Search failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Search completed")
	api.PaginatedResponse(w, r, result)
}

func parseSearchFilter(r *http.Request) (types.RecipeFilter, error) {
	fields := map[string]string{}
	filter := types.RecipeFilter{Term: strings.TrimSpace(r.URL.Query().Get("termo_busca"))}

	var err error
	if filter.UserID, err = api.ParseOptionalID(r, "id_usuarios"); err != nil {
		mergeFields(fields, err)
	}
	if filter.CategoryID, err = api.ParseOptionalID(r, "id_categorias"); err != nil {
		mergeFields(fields, err)
	}
	if filter.PageRequest, err = api.ParsePageRequest(r); err != nil {
		mergeFields(fields, err)
	}
	if len(fields) > 0 {
		return types.RecipeFilter{}, api.NewValidation(api.MsgValidation, fields)
	}
	return filter, nil
}

func mergeFields(dst map[string]string, err error) {
	var appErr *api.Error
	if errors.As(err, &appErr) {
		for k, v := range appErr.Fields {
			dst[k] = v
		}
	}
}

// ListByUser handles GET /receitas/usuario/{id}.
func (h *HandlerImpl) ListByUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "ListByUser"))

	userID, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	page, err := api.ParsePageRequest(r)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	result, err := h.service.FindByUser(r.Context(), userID, page)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.PaginatedResponse(w, r, result)
}

// ListByCategory handles GET /receitas/categoria/{id}.
func (h *HandlerImpl) ListByCategory(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "ListByCategory"))

	categoryID, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	page, err := api.ParsePageRequest(r)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	result, err := h.service.FindByCategory(r.Context(), categoryID, page)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.PaginatedResponse(w, r, result)
}

// GetRecipe handles GET /receitas/{id}.
func (h *HandlerImpl) GetRecipe(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "GetRecipe"))

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	view, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, view, "")
}

// CreateRecipe handles POST /receitas. The caller becomes the owner.
func (h *HandlerImpl) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecipeHandler").Start(r.Context(), "CreateRecipe")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateRecipe"))

	principal, ok := auth.GetPrincipalFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusForbidden, api.MsgNotAuthenticated)
		return
	}

	var req types.CreateRecipeRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.HandleError(w, r, l, err)
		return
	}

	view, err := h.service.Create(ctx, principal.ID, req)
	if err != nil {
		span.SetStatus(codes.Error, "Create failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Created")
	api.SuccessResponse(w, r, http.StatusCreated, view, "")
}

// UpdateRecipe handles PUT /receitas/{id}. Only fields present in the body
// change; an explicit null clears an optional field.
func (h *HandlerImpl) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecipeHandler").Start(r.Context(), "UpdateRecipe")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateRecipe"))

	principal, ok := auth.GetPrincipalFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusForbidden, api.MsgNotAuthenticated)
		return
	}
	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}

	// Ownership is settled before any body error is reported; the service
	// validates the patch itself once the caller is known to own the recipe.
	var patch types.RecipePatch
	if err := api.DecodeJSONBody(w, r, &patch); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		if ownerErr := h.service.CheckOwner(ctx, id, principal.ID); ownerErr != nil {
			api.HandleError(w, r, l, ownerErr)
			return
		}
		api.HandleError(w, r, l, api.NewValidation(api.MsgValidation, map[string]string{"body": err.Error()}))
		return
	}

	view, err := h.service.Update(ctx, id, principal.ID, patch)
	if err != nil {
		span.SetStatus(codes.Error, "Update failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Updated")
	api.SuccessResponse(w, r, http.StatusOK, view, "")
}

// DeleteRecipe handles DELETE /receitas/{id}.
func (h *HandlerImpl) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecipeHandler").Start(r.Context(), "DeleteRecipe")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteRecipe"))

	principal, ok := auth.GetPrincipalFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusForbidden, api.MsgNotAuthenticated)
		return
	}
	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		api.HandleError(w, r, l, err)
		return
	}

	if err := h.service.Delete(ctx, id, principal.ID); err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		api.HandleError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Deleted")
	api.SuccessResponse(w, r, http.StatusOK, nil, api.MsgRecipeDeleted)
}
