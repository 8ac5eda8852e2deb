package recipe

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type MockRecipeRepo struct {
	mock.Mock
}

func (m *MockRecipeRepo) FindByID(ctx context.Context, id int64) (*types.RecipeView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeRepo) page(args mock.Arguments) (*types.Page[types.RecipeView], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Page[types.RecipeView]), args.Error(1)
}

func (m *MockRecipeRepo) FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, userID, page))
}

func (m *MockRecipeRepo) FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, categoryID, page))
}

func (m *MockRecipeRepo) FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, page))
}

func (m *MockRecipeRepo) Search(ctx context.Context, filter types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockRecipeRepo) Create(ctx context.Context, recipe types.Recipe) (*types.RecipeView, error) {
	args := m.Called(ctx, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeRepo) Update(ctx context.Context, id int64, patch types.RecipePatch) (*types.RecipeView, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockCategoryChecker struct {
	mock.Mock
}

func (m *MockCategoryChecker) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func newService() (*ServiceImpl, *MockRecipeRepo, *MockCategoryChecker) {
	repo := new(MockRecipeRepo)
	categories := new(MockCategoryChecker)
	return NewRecipeService(repo, categories, slog.Default()), repo, categories
}

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()
	req := types.CreateRecipeRequest{
		CategoryID:   ptr(int64(2)),
		Nome:         "Picanha assada",
		Instructions: "Asse por 40 minutos",
		Ingredients:  "1kg de picanha, sal grosso",
	}

	t.Run("Success", func(t *testing.T) {
		service, repo, categories := newService()
		view := &types.RecipeView{Recipe: types.Recipe{ID: 1, UserID: 5, CategoryID: req.CategoryID, Nome: req.Nome}}

		// Set up expectations
		categories.On("Exists", mock.Anything, int64(2)).Return(true, nil).Once()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r types.Recipe) bool {
			return r.UserID == 5 && r.Nome == req.Nome && *r.CategoryID == 2
		})).Return(view, nil).Once()

		got, err := service.Create(ctx, 5, req)

		require.NoError(t, err)
		assert.Equal(t, view, got)
		repo.AssertExpectations(t)
		categories.AssertExpectations(t)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		service, repo, categories := newService()
		categories.On("Exists", mock.Anything, int64(2)).Return(false, nil).Once()

		_, err := service.Create(ctx, 5, req)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
		assert.Contains(t, err.Error(), api.MsgCategoryNotFound)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NoCategorySkipsCheck", func(t *testing.T) {
		service, repo, categories := newService()
		noCategory := req
		noCategory.CategoryID = nil
		repo.On("Create", mock.Anything, mock.AnythingOfType("types.Recipe")).
			Return(&types.RecipeView{Recipe: types.Recipe{ID: 2}}, nil).Once()

		_, err := service.Create(ctx, 5, noCategory)

		require.NoError(t, err)
		categories.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})
}

func TestUpdateRecipe(t *testing.T) {
	ctx := context.Background()
	owned := &types.RecipeView{Recipe: types.Recipe{ID: 10, UserID: 5}}
	patch := types.RecipePatch{Nome: ptr("Novo nome")}

	t.Run("Owner", func(t *testing.T) {
		service, repo, _ := newService()
		updated := &types.RecipeView{Recipe: types.Recipe{ID: 10, UserID: 5, Nome: "Novo nome"}}
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()
		repo.On("Update", mock.Anything, int64(10), patch).Return(updated, nil).Once()

		got, err := service.Update(ctx, 10, 5, patch)

		require.NoError(t, err)
		assert.Equal(t, "Novo nome", got.Nome)
		repo.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		_, err := service.Update(ctx, 10, 6, patch)

		assert.ErrorIs(t, err, api.ErrForbidden)
		assert.Contains(t, err.Error(), api.MsgRecipeEditDenied)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(11)).Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, 11, 5, patch)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
		assert.Contains(t, err.Error(), api.MsgRecipeNotFound)
	})

	t.Run("EmptyPatch", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		_, err := service.Update(ctx, 10, 5, types.RecipePatch{})

		assert.Equal(t, api.KindValidation, api.KindOf(err))
		assert.Contains(t, err.Error(), api.MsgEmptyUpdate)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		service, repo, _ := newService()
		bad := types.RecipePatch{Nome: ptr("x"), Servings: types.Some(-2)}
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		_, err := service.Update(ctx, 10, 5, bad)

		require.Equal(t, api.KindValidation, api.KindOf(err))
		var appErr *api.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "nome")
		assert.Contains(t, appErr.Fields, "porcoes")
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotOwnerWithInvalidPatch", func(t *testing.T) {
		for name, p := range map[string]types.RecipePatch{
			"empty":     {},
			"shortName": {Nome: ptr("x")},
			"negative":  {PrepTimeMinutes: types.Some(-1)},
		} {
			t.Run(name, func(t *testing.T) {
				service, repo, _ := newService()
				repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

				_, err := service.Update(ctx, 10, 6, p)

				assert.ErrorIs(t, err, api.ErrForbidden)
				assert.Contains(t, err.Error(), api.MsgRecipeEditDenied)
			})
		}
	})

	t.Run("NewCategoryMissing", func(t *testing.T) {
		service, repo, categories := newService()
		withCategory := types.RecipePatch{CategoryID: types.Some(int64(99))}
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()
		categories.On("Exists", mock.Anything, int64(99)).Return(false, nil).Once()

		_, err := service.Update(ctx, 10, 5, withCategory)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
		assert.Contains(t, err.Error(), api.MsgCategoryNotFound)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ClearingCategorySkipsCheck", func(t *testing.T) {
		service, repo, categories := newService()
		clearPatch := types.RecipePatch{CategoryID: types.Null[int64]()}
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()
		repo.On("Update", mock.Anything, int64(10), clearPatch).Return(owned, nil).Once()

		_, err := service.Update(ctx, 10, 5, clearPatch)

		require.NoError(t, err)
		categories.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	owned := &types.RecipeView{Recipe: types.Recipe{ID: 10, UserID: 5}}

	t.Run("Owner", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()
		repo.On("Delete", mock.Anything, int64(10)).Return(true, nil).Once()

		assert.NoError(t, service.Delete(ctx, 10, 5))
		repo.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		err := service.Delete(ctx, 10, 6)

		assert.ErrorIs(t, err, api.ErrForbidden)
		assert.Contains(t, err.Error(), api.MsgRecipeDeleteDenied)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("ConcurrentlyRemoved", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()
		repo.On("Delete", mock.Anything, int64(10)).Return(false, nil).Once()

		err := service.Delete(ctx, 10, 5)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
	})
}

func TestSearchRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidatesCategory", func(t *testing.T) {
		service, repo, categories := newService()
		filter := types.RecipeFilter{CategoryID: ptr(int64(3)), PageRequest: types.NewPageRequest(1, 10)}
		categories.On("Exists", mock.Anything, int64(3)).Return(false, nil).Once()

		_, err := service.Search(ctx, filter)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
		repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("Delegates", func(t *testing.T) {
		service, repo, _ := newService()
		filter := types.RecipeFilter{Term: "bolo", PageRequest: types.NewPageRequest(1, 10)}
		page := types.NewPage([]types.RecipeView{{Recipe: types.Recipe{ID: 1}}}, filter.PageRequest, 1)
		repo.On("Search", mock.Anything, filter).Return(page, nil).Once()

		got, err := service.Search(ctx, filter)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Meta.TotalItems)
		repo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		service, repo, _ := newService()
		filter := types.RecipeFilter{PageRequest: types.NewPageRequest(1, 10)}
		repo.On("Search", mock.Anything, filter).Return(nil, errors.New("timeout")).Once()

		_, err := service.Search(ctx, filter)

		assert.Equal(t, api.KindInternal, api.KindOf(err))
	})
}

func TestFindByCategoryRequiresCategory(t *testing.T) {
	service, repo, categories := newService()
	categories.On("Exists", mock.Anything, int64(8)).Return(false, nil).Once()

	_, err := service.FindByCategory(context.Background(), 8, types.NewPageRequest(1, 10))

	assert.Equal(t, api.KindNotFound, api.KindOf(err))
	repo.AssertNotCalled(t, "FindByCategory", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckOwner(t *testing.T) {
	ctx := context.Background()
	owned := &types.RecipeView{Recipe: types.Recipe{ID: 10, UserID: 5}}

	t.Run("Owner", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		assert.NoError(t, service.CheckOwner(ctx, 10, 5))
	})

	t.Run("NotOwner", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(10)).Return(owned, nil).Once()

		err := service.CheckOwner(ctx, 10, 6)

		assert.ErrorIs(t, err, api.ErrForbidden)
	})

	t.Run("Missing", func(t *testing.T) {
		service, repo, _ := newService()
		repo.On("FindByID", mock.Anything, int64(12)).Return(nil, api.ErrNotFound).Once()

		err := service.CheckOwner(ctx, 12, 5)

		assert.Equal(t, api.KindNotFound, api.KindOf(err))
	})
}
