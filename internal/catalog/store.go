package catalog

import (
	"context"

	"nutrilog/models"
)

// Store is the persistence collaborator behind a Service. Update and delete
// methods return a *NotFoundError when the id is unknown.
type Store interface {
	ListFoods(ctx context.Context) ([]models.Food, error)
	InsertFood(ctx context.Context, food *models.Food) error
	UpdateFood(ctx context.Context, id uint, food *models.Food) error
	DeleteFood(ctx context.Context, id uint) error

	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	InsertRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, id uint, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, id uint) error

	InsertIngredients(ctx context.Context, recipeID uint, ingredients []models.Ingredient) error
	DeleteIngredients(ctx context.Context, recipeID uint) error

	// ReplaceAll swaps the whole catalog for the given foods and recipes.
	ReplaceAll(ctx context.Context, foods []models.Food, recipes []models.Recipe) error
}

// Transactor is implemented by stores that can run several calls atomically.
// fn receives a Store bound to the transaction; returning an error rolls it back.
type Transactor interface {
	Atomic(ctx context.Context, fn func(Store) error) error
}
