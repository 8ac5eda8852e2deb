package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) view(args mock.Arguments) (*types.RecipeView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeService) page(args mock.Arguments) (*types.Page[types.RecipeView], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Page[types.RecipeView]), args.Error(1)
}

func (m *MockRecipeService) FindByID(ctx context.Context, id int64) (*types.RecipeView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockRecipeService) FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, page))
}

func (m *MockRecipeService) FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, userID, page))
}

func (m *MockRecipeService) FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, categoryID, page))
}

func (m *MockRecipeService) Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockRecipeService) Create(ctx context.Context, ownerID int64, req types.CreateRecipeRequest) (*types.RecipeView, error) {
	return m.view(m.Called(ctx, ownerID, req))
}

func (m *MockRecipeService) Update(ctx context.Context, id, ownerID int64, patch types.RecipePatch) (*types.RecipeView, error) {
	return m.view(m.Called(ctx, id, ownerID, patch))
}

func (m *MockRecipeService) CheckOwner(ctx context.Context, id, ownerID int64) error {
	return m.Called(ctx, id, ownerID).Error(0)
}

func (m *MockRecipeService) Delete(ctx context.Context, id, ownerID int64) error {
	return m.Called(ctx, id, ownerID).Error(0)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), types.Principal{ID: id, Login: "user@x.com"}))
}

func TestListRecipesHandler(t *testing.T) {
	mockService := new(MockRecipeService)
	handler := NewRecipeHandler(mockService, slog.Default())

	t.Run("ClampsPageSize", func(t *testing.T) {
		want := types.PageRequest{Page: 2, PageSize: types.MaxPageSize}
		page := types.NewPage([]types.RecipeView{}, want, 150)
		mockService.On("FindAll", mock.Anything, want).Return(page, nil).Once()

		rr := httptest.NewRecorder()
		handler.ListRecipes(rr, httptest.NewRequest(http.MethodGet, "/receitas?page=2&pageSize=500", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body api.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.Equal(t, types.PageMeta{Page: 2, PageSize: 100, TotalItems: 150, TotalPages: 2}, *body.Meta)
		assert.Equal(t, []any{}, body.Data)
		mockService.AssertExpectations(t)
	})

	t.Run("BadPage", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ListRecipes(rr, httptest.NewRequest(http.MethodGet, "/receitas?page=zero", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSearchRecipesHandler(t *testing.T) {
	mockService := new(MockRecipeService)
	handler := NewRecipeHandler(mockService, slog.Default())

	t.Run("ClampsOversizedPage", func(t *testing.T) {
		want := types.RecipeFilter{Term: "bolo", PageRequest: types.PageRequest{Page: 1, PageSize: types.MaxPageSize}}
		mockService.On("Search", mock.Anything, want).
			Return(types.NewPage([]types.RecipeView{}, want.PageRequest, 0), nil).Once()

		rr := httptest.NewRecorder()
		handler.SearchRecipes(rr, httptest.NewRequest(http.MethodGet, "/receitas/search?termo_busca=bolo&pageSize=500", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body api.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.Equal(t, types.MaxPageSize, body.Meta.PageSize)
		mockService.AssertExpectations(t)
	})

	t.Run("CollectsAllFieldErrors", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.SearchRecipes(rr, httptest.NewRequest(http.MethodGet, "/receitas/search?id_usuarios=-1&id_categorias=x", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var body api.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Contains(t, body.Errors, "id_usuarios")
		assert.Contains(t, body.Errors, "id_categorias")
	})

	t.Run("PassesFilter", func(t *testing.T) {
		userID := int64(4)
		want := types.RecipeFilter{Term: "bolo de milho", UserID: &userID, PageRequest: types.NewPageRequest(1, 10)}
		mockService.On("Search", mock.Anything, want).
			Return(types.NewPage([]types.RecipeView{}, want.PageRequest, 0), nil).Once()

		rr := httptest.NewRecorder()
		handler.SearchRecipes(rr, httptest.NewRequest(http.MethodGet, "/receitas/search?termo_busca=+bolo+de+milho+&id_usuarios=4", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestCreateRecipeHandler(t *testing.T) {
	mockService := new(MockRecipeService)
	handler := NewRecipeHandler(mockService, slog.Default())
	body := `{"nome":"Bolo de fubá","modo_preparo":"Misture tudo e asse","ingredientes":"fubá, ovos, leite","porcoes":8}`

	t.Run("Anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.CreateRecipe(rr, httptest.NewRequest(http.MethodPost, "/receitas", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), api.MsgNotAuthenticated)
	})

	t.Run("Created", func(t *testing.T) {
		view := &types.RecipeView{Recipe: types.Recipe{ID: 1, UserID: 3, Nome: "Bolo de fubá"}}
		mockService.On("Create", mock.Anything, int64(3), mock.MatchedBy(func(req types.CreateRecipeRequest) bool {
			return req.Nome == "Bolo de fubá" && req.Servings != nil && *req.Servings == 8
		})).Return(view, nil).Once()

		req := asUser(httptest.NewRequest(http.MethodPost, "/receitas", bytes.NewBufferString(body)), 3)
		rr := httptest.NewRecorder()
		handler.CreateRecipe(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("OwnerFieldRejected", func(t *testing.T) {
		withOwner := `{"nome":"Bolo de fubá","modo_preparo":"Misture tudo e asse","ingredientes":"fubá, ovos, leite","id_usuarios":99}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/receitas", bytes.NewBufferString(withOwner)), 3)
		rr := httptest.NewRecorder()
		handler.CreateRecipe(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NonPositiveServings", func(t *testing.T) {
		bad := `{"nome":"Bolo de fubá","modo_preparo":"Misture tudo e asse","ingredientes":"fubá, ovos, leite","porcoes":0}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/receitas", bytes.NewBufferString(bad)), 3)
		rr := httptest.NewRecorder()
		handler.CreateRecipe(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "porcoes")
	})
}

func TestUpdateRecipeHandler(t *testing.T) {
	mockService := new(MockRecipeService)
	handler := NewRecipeHandler(mockService, slog.Default())

	newRequest := func(body string) *http.Request {
		r := httptest.NewRequest(http.MethodPut, "/receitas/10", bytes.NewBufferString(body))
		return asUser(withURLParam(r, "id", "10"), 3)
	}

	t.Run("EmptyPatchReachesService", func(t *testing.T) {
		mockService.On("Update", mock.Anything, int64(10), int64(3), types.RecipePatch{}).
			Return(nil, api.NewValidation(api.MsgEmptyUpdate, nil)).Once()

		rr := httptest.NewRecorder()
		handler.UpdateRecipe(rr, newRequest(`{}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), api.MsgEmptyUpdate)
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedBodyFromOwner", func(t *testing.T) {
		mockService.On("CheckOwner", mock.Anything, int64(10), int64(3)).Return(nil).Once()

		rr := httptest.NewRecorder()
		handler.UpdateRecipe(rr, newRequest(`{"nome":`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "body")
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedBodyFromNonOwner", func(t *testing.T) {
		mockService.On("CheckOwner", mock.Anything, int64(10), int64(3)).
			Return(api.NewForbidden(api.MsgRecipeEditDenied)).Once()

		rr := httptest.NewRecorder()
		handler.UpdateRecipe(rr, newRequest(`{"sabor":"doce"}`))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), api.MsgRecipeEditDenied)
		mockService.AssertExpectations(t)
	})

	t.Run("NullClearsServings", func(t *testing.T) {
		mockService.On("Update", mock.Anything, int64(10), int64(3), mock.MatchedBy(func(p types.RecipePatch) bool {
			return p.Servings.Set && p.Servings.Null && p.Nome == nil
		})).Return(&types.RecipeView{Recipe: types.Recipe{ID: 10, UserID: 3}}, nil).Once()

		rr := httptest.NewRecorder()
		handler.UpdateRecipe(rr, newRequest(`{"porcoes":null}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Forbidden", func(t *testing.T) {
		mockService.On("Update", mock.Anything, int64(10), int64(3), mock.AnythingOfType("types.RecipePatch")).
			Return(nil, api.NewForbidden(api.MsgRecipeEditDenied)).Once()

		rr := httptest.NewRecorder()
		handler.UpdateRecipe(rr, newRequest(`{"nome":"Outro nome"}`))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), api.MsgRecipeEditDenied)
	})
}

func TestDeleteRecipeHandler(t *testing.T) {
	mockService := new(MockRecipeService)
	handler := NewRecipeHandler(mockService, slog.Default())

	mockService.On("Delete", mock.Anything, int64(10), int64(3)).Return(nil).Once()

	req := asUser(withURLParam(httptest.NewRequest(http.MethodDelete, "/receitas/10", nil), "id", "10"), 3)
	rr := httptest.NewRecorder()
	handler.DeleteRecipe(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), api.MsgRecipeDeleted)
	mockService.AssertExpectations(t)
}
