package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"nutrilog/internal/catalog"
	"nutrilog/models"
)

// Store persists the catalog through gorm. It satisfies catalog.Store and
// catalog.Transactor.
type Store struct {
	db *gorm.DB
}

var (
	_ catalog.Store      = (*Store)(nil)
	_ catalog.Transactor = (*Store)(nil)
)

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		panic("db: nil database handle")
	}
	return &Store{db: db}
}

// Atomic runs fn inside a database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(catalog.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) ListFoods(ctx context.Context) ([]models.Food, error) {
	var foods []models.Food
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return foods, nil
}

func (s *Store) InsertFood(ctx context.Context, food *models.Food) error {
	if err := s.db.WithContext(ctx).Create(food).Error; err != nil {
		return fmt.Errorf("insert food: %w", err)
	}
	return nil
}

func (s *Store) UpdateFood(ctx context.Context, id uint, food *models.Food) error {
	food.ID = id
	result := s.db.WithContext(ctx).Model(food).Select("*").Omit("id", "created_at").Updates(food)
	if result.Error != nil {
		return fmt.Errorf("update food %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &catalog.NotFoundError{Kind: "food", ID: id}
	}
	return nil
}

func (s *Store) DeleteFood(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Food{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete food %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &catalog.NotFoundError{Kind: "food", ID: id}
	}
	return nil
}

// ListRecipes loads every recipe with its ingredient rows in position order.
func (s *Store) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	db := s.db.WithContext(ctx)

	var recipes []models.Recipe
	if err := db.Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	var rows []models.RecipeIngredient
	if err := db.Order("recipe_id ASC").Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recipe ingredients: %w", err)
	}

	byRecipe := make(map[uint][]models.Ingredient, len(recipes))
	for _, row := range rows {
		byRecipe[row.RecipeID] = append(byRecipe[row.RecipeID], row.Ingredient())
	}
	for i := range recipes {
		ingredients := byRecipe[recipes[i].ID]
		if ingredients == nil {
			ingredients = []models.Ingredient{}
		}
		recipes[i].Ingredients = ingredients
	}
	return recipes, nil
}

func (s *Store) InsertRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (s *Store) UpdateRecipe(ctx context.Context, id uint, recipe *models.Recipe) error {
	recipe.ID = id
	result := s.db.WithContext(ctx).Model(recipe).Select("*").Omit("id", "created_at").Updates(recipe)
	if result.Error != nil {
		return fmt.Errorf("update recipe %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &catalog.NotFoundError{Kind: "recipe", ID: id}
	}
	return nil
}

// DeleteRecipe removes the recipe and its ingredient rows together.
func (s *Store) DeleteRecipe(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete ingredients of recipe %d: %w", id, err)
		}
		result := tx.Delete(&models.Recipe{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete recipe %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return &catalog.NotFoundError{Kind: "recipe", ID: id}
		}
		return nil
	})
}

func (s *Store) InsertIngredients(ctx context.Context, recipeID uint, ingredients []models.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, len(ingredients))
	for i, ingredient := range ingredients {
		rows[i] = models.NewRecipeIngredient(recipeID, i, ingredient)
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert ingredients of recipe %d: %w", recipeID, err)
	}
	return nil
}

func (s *Store) DeleteIngredients(ctx context.Context, recipeID uint) error {
	if err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("delete ingredients of recipe %d: %w", recipeID, err)
	}
	return nil
}

// ReplaceAll empties every table and writes foods and recipes in one
// transaction. Records that carry an id keep it; the rest are assigned one in
// place.
func (s *Store) ReplaceAll(ctx context.Context, foods []models.Food, recipes []models.Recipe) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.RecipeIngredient{}, &models.Recipe{}, &models.Food{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("clear catalog: %w", err)
			}
		}

		if err := insertKeepingIDs(tx, "foods", len(foods), func(i int) any { return &foods[i] }, func(i int) uint { return foods[i].ID }); err != nil {
			return fmt.Errorf("import foods: %w", err)
		}
		if err := insertKeepingIDs(tx, "recipes", len(recipes), func(i int) any { return &recipes[i] }, func(i int) uint { return recipes[i].ID }); err != nil {
			return fmt.Errorf("import recipes: %w", err)
		}

		txStore := &Store{db: tx}
		for _, recipe := range recipes {
			if err := txStore.InsertIngredients(ctx, recipe.ID, recipe.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

// insertKeepingIDs creates the records with explicit ids first, moves the
// table's id sequence past them, then creates the rest.
func insertKeepingIDs(tx *gorm.DB, table string, n int, record func(int) any, id func(int) uint) error {
	for i := 0; i < n; i++ {
		if id(i) == 0 {
			continue
		}
		if err := tx.Create(record(i)).Error; err != nil {
			return err
		}
	}
	if err := resetSequence(tx, table); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if id(i) != 0 {
			continue
		}
		if err := tx.Create(record(i)).Error; err != nil {
			return err
		}
	}
	return nil
}

// resetSequence is only needed on postgres; sqlite derives the next rowid
// from the table's current maximum.
func resetSequence(tx *gorm.DB, table string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
		table,
	)
	return tx.Exec(query).Error
}
