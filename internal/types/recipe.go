package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// Recipe is the persisted shape of a recipe. Relations are ids only.
type Recipe struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"id_usuarios"`
	CategoryID      *int64    `json:"id_categorias"`
	Nome            string    `json:"nome"`
	PrepTimeMinutes *int      `json:"tempo_preparo_minutos"`
	Servings        *int      `json:"porcoes"`
	Instructions    string    `json:"modo_preparo"`
	Ingredients     string    `json:"ingredientes"`
	CreatedAt       time.Time `json:"criado_em"`
	UpdatedAt       time.Time `json:"alterado_em"`
}

// RecipeView is a recipe hydrated with its owner and category.
type RecipeView struct {
	Recipe
	Usuario   *UserSummary `json:"usuario,omitempty"`
	Categoria *Category    `json:"categoria,omitempty"`
}

// Optional distinguishes a JSON field that was omitted from one explicitly set
// to null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns nil for an explicit null and a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// CreateRecipeRequest is the body of POST /receitas.
type CreateRecipeRequest struct {
	CategoryID      *int64 `json:"id_categorias" validate:"omitempty,gt=0"`
	Nome            string `json:"nome" validate:"required,min=3,max=255"`
	PrepTimeMinutes *int   `json:"tempo_preparo_minutos" validate:"omitempty,gt=0"`
	Servings        *int   `json:"porcoes" validate:"omitempty,gt=0"`
	Instructions    string `json:"modo_preparo" validate:"required,min=10"`
	Ingredients     string `json:"ingredientes" validate:"required,min=10"`
}

// RecipePatch is a partial update. Only fields that were sent are written;
// the owner cannot be expressed here at all.
type RecipePatch struct {
	CategoryID      Optional[int64] `json:"id_categorias"`
	Nome            *string         `json:"nome" validate:"omitempty,min=3,max=255"`
	PrepTimeMinutes Optional[int]   `json:"tempo_preparo_minutos"`
	Servings        Optional[int]   `json:"porcoes"`
	Instructions    *string         `json:"modo_preparo" validate:"omitempty,min=10"`
	Ingredients     *string         `json:"ingredientes" validate:"omitempty,min=10"`
}

func (p RecipePatch) IsEmpty() bool {
	return !p.CategoryID.Set && p.Nome == nil && !p.PrepTimeMinutes.Set &&
		!p.Servings.Set && p.Instructions == nil && p.Ingredients == nil
}

// RecipeFilter drives the search endpoint. Nil ids and an empty term mean
// "no filter".
type RecipeFilter struct {
	Term       string
	UserID     *int64
	CategoryID *int64
	PageRequest
}
