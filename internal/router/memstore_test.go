package router

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

// memStore backs the in-memory repositories used to drive the router end to end.
type memStore struct {
	mu         sync.Mutex
	users      []types.UserCredentials
	categories map[int64]types.Category
	recipes    map[int64]types.Recipe
	nextCat    int64
	nextRecipe int64
	clock      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[int64]types.Category{},
		recipes:    map[int64]types.Recipe{},
		clock:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memAuthRepo struct{ *memStore }

func (r memAuthRepo) FindByLogin(_ context.Context, login string) (*types.UserCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == login {
			c := u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("login %q: %w", login, api.ErrNotFound)
}

func (r memAuthRepo) Create(_ context.Context, nu types.NewUser) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == nu.Login {
			return nil, api.ErrConflict
		}
	}
	now := r.tick()
	u := types.UserCredentials{
		User:         types.User{ID: int64(len(r.users) + 1), Nome: nu.Nome, Login: nu.Login, CreatedAt: now, UpdatedAt: now},
		PasswordHash: nu.PasswordHash,
	}
	r.users = append(r.users, u)
	created := u.User
	return &created, nil
}

type memUserRepo struct{ *memStore }

func (r memUserRepo) ListSummaries(context.Context) ([]types.UserListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.UserListItem, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, types.UserListItem{ID: u.ID, Nome: u.Nome})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (r memUserRepo) FindByID(_ context.Context, id int64) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			found := u.User
			return &found, nil
		}
	}
	return nil, api.ErrNotFound
}

type memCategoryRepo struct{ *memStore }

func (r memCategoryRepo) FindAll(context.Context) ([]types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (r memCategoryRepo) FindByID(_ context.Context, id int64) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.categories[id]; ok {
		return &c, nil
	}
	return nil, api.ErrNotFound
}

func (r memCategoryRepo) FindByName(_ context.Context, nome string) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Nome == nome {
			found := c
			return &found, nil
		}
	}
	return nil, api.ErrNotFound
}

func (r memCategoryRepo) Create(_ context.Context, nome string) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextCat++
	c := types.Category{ID: r.nextCat, Nome: nome}
	r.categories[c.ID] = c
	return &c, nil
}

func (r memCategoryRepo) Update(_ context.Context, id int64, nome string) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return nil, api.ErrNotFound
	}
	c := types.Category{ID: id, Nome: nome}
	r.categories[id] = c
	return &c, nil
}

// Delete mirrors ON DELETE SET NULL on receitas.id_categorias.
func (r memCategoryRepo) Delete(_ context.Context, id int64) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	delete(r.categories, id)
	for rid, rec := range r.recipes {
		if rec.CategoryID != nil && *rec.CategoryID == id {
			rec.CategoryID = nil
			r.recipes[rid] = rec
		}
	}
	return &c, nil
}

type memRecipeRepo struct{ *memStore }

func (r memRecipeRepo) view(rec types.Recipe) types.RecipeView {
	v := types.RecipeView{Recipe: rec}
	for _, u := range r.users {
		if u.ID == rec.UserID {
			v.Usuario = &types.UserSummary{ID: u.ID, Nome: u.Nome, Login: u.Login}
		}
	}
	if rec.CategoryID != nil {
		if c, ok := r.categories[*rec.CategoryID]; ok {
			v.Categoria = &c
		}
	}
	return v
}

func (r memRecipeRepo) FindByID(_ context.Context, id int64) (*types.RecipeView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipes[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	v := r.view(rec)
	return &v, nil
}

func (r memRecipeRepo) FindByUser(ctx context.Context, userID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.Search(ctx, types.RecipeFilter{UserID: &userID, PageRequest: page})
}

func (r memRecipeRepo) FindByCategory(ctx context.Context, categoryID int64, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.Search(ctx, types.RecipeFilter{CategoryID: &categoryID, PageRequest: page})
}

func (r memRecipeRepo) FindAll(ctx context.Context, page types.PageRequest) (*types.Page[types.RecipeView], error) {
	return r.Search(ctx, types.RecipeFilter{PageRequest: page})
}

func (r memRecipeRepo) Search(_ context.Context, f types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := f.PageRequest.Normalize()
	term := strings.ToLower(strings.TrimSpace(f.Term))

	var matched []types.Recipe
	for _, rec := range r.recipes {
		if f.UserID != nil && rec.UserID != *f.UserID {
			continue
		}
		if f.CategoryID != nil && (rec.CategoryID == nil || *rec.CategoryID != *f.CategoryID) {
			continue
		}
		if term != "" {
			haystack := strings.ToLower(rec.Nome + " " + rec.Ingredients + " " + rec.Instructions)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		matched = append(matched, rec)
	}
	slices.SortFunc(matched, func(a, b types.Recipe) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})

	views := []types.RecipeView{}
	start := min(page.Offset(), len(matched))
	end := min(start+page.PageSize, len(matched))
	for _, rec := range matched[start:end] {
		views = append(views, r.view(rec))
	}
	return types.NewPage(views, page, int64(len(matched))), nil
}

func (r memRecipeRepo) Create(ctx context.Context, rec types.Recipe) (*types.RecipeView, error) {
	r.mu.Lock()
	r.nextRecipe++
	rec.ID = r.nextRecipe
	rec.CreatedAt = r.tick()
	rec.UpdatedAt = rec.CreatedAt
	r.recipes[rec.ID] = rec
	r.mu.Unlock()
	return r.FindByID(ctx, rec.ID)
}

func (r memRecipeRepo) Update(ctx context.Context, id int64, p types.RecipePatch) (*types.RecipeView, error) {
	r.mu.Lock()
	rec, ok := r.recipes[id]
	if !ok {
		r.mu.Unlock()
		return nil, api.ErrNotFound
	}
	if p.CategoryID.Set {
		rec.CategoryID = p.CategoryID.Ptr()
	}
	if p.Nome != nil {
		rec.Nome = *p.Nome
	}
	if p.PrepTimeMinutes.Set {
		rec.PrepTimeMinutes = p.PrepTimeMinutes.Ptr()
	}
	if p.Servings.Set {
		rec.Servings = p.Servings.Ptr()
	}
	if p.Instructions != nil {
		rec.Instructions = *p.Instructions
	}
	if p.Ingredients != nil {
		rec.Ingredients = *p.Ingredients
	}
	rec.UpdatedAt = r.tick()
	r.recipes[id] = rec
	r.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r memRecipeRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[id]; !ok {
		return false, nil
	}
	delete(r.recipes, id)
	return true, nil
}
