package catalog

import (
	"context"
	"slices"
	"strings"

	applog "nutrilog/internal/log"
	"nutrilog/internal/nutrition"
	"nutrilog/models"
)

// Save commits draft as a new recipe, or as an edit when the draft came from
// an existing recipe.
func (s *Service) Save(ctx context.Context, draft Draft) (models.Recipe, error) {
	if draft.Editing() {
		return s.CommitEdit(ctx, draft.EditingID, draft)
	}
	return s.Commit(ctx, draft)
}

// Commit stores draft as a new recipe: the recipe row with its totals first,
// then its ingredient rows.
func (s *Service) Commit(ctx context.Context, draft Draft) (models.Recipe, error) {
	recipe, err := s.buildRecipe(draft)
	if err != nil {
		return models.Recipe{}, err
	}

	steps := []sagaStep{
		{
			name: "insert recipe",
			do: func(ctx context.Context, store Store) error {
				return store.InsertRecipe(ctx, &recipe)
			},
			undo: func(ctx context.Context, store Store) error {
				return store.DeleteRecipe(ctx, recipe.ID)
			},
		},
		{
			name: "insert ingredients",
			do: func(ctx context.Context, store Store) error {
				return store.InsertIngredients(ctx, recipe.ID, recipe.Ingredients)
			},
		},
	}
	if err := s.call(ctx, "commit recipe", func(ctx context.Context) error {
		return s.runSteps(ctx, steps)
	}); err != nil {
		applog.Error(ctx, "commit recipe failed", "name", recipe.Name, "error", err)
		return models.Recipe{}, err
	}

	applog.Info(ctx, "recipe created", "id", recipe.ID, "name", recipe.Name, "ingredients", len(recipe.Ingredients))
	return s.reloadRecipes(ctx, recipe), nil
}

// CommitEdit replaces the recipe with the given id: its fields and totals are
// updated, then the old ingredient rows are swapped for the draft's.
func (s *Service) CommitEdit(ctx context.Context, id uint, draft Draft) (models.Recipe, error) {
	recipe, err := s.buildRecipe(draft)
	if err != nil {
		return models.Recipe{}, err
	}
	previous, ok := s.Recipe(id)
	if !ok {
		return models.Recipe{}, &NotFoundError{Kind: "recipe", ID: id}
	}
	recipe.ID = id
	recipe.CreatedAt = previous.CreatedAt

	steps := []sagaStep{
		{
			name: "update recipe",
			do: func(ctx context.Context, store Store) error {
				return store.UpdateRecipe(ctx, id, &recipe)
			},
			undo: func(ctx context.Context, store Store) error {
				return store.UpdateRecipe(ctx, id, &previous)
			},
		},
		{
			name: "delete ingredients",
			do: func(ctx context.Context, store Store) error {
				return store.DeleteIngredients(ctx, id)
			},
			undo: func(ctx context.Context, store Store) error {
				// A failed insert may have written some of the new rows.
				if err := store.DeleteIngredients(ctx, id); err != nil {
					return err
				}
				return store.InsertIngredients(ctx, id, previous.Ingredients)
			},
		},
		{
			name: "insert ingredients",
			do: func(ctx context.Context, store Store) error {
				return store.InsertIngredients(ctx, id, recipe.Ingredients)
			},
		},
	}
	if err := s.call(ctx, "update recipe", func(ctx context.Context) error {
		return s.runSteps(ctx, steps)
	}); err != nil {
		applog.Error(ctx, "update recipe failed", "id", id, "error", err)
		return models.Recipe{}, err
	}

	applog.Info(ctx, "recipe updated", "id", id, "name", recipe.Name, "ingredients", len(recipe.Ingredients))
	return s.reloadRecipes(ctx, recipe), nil
}

// RemoveRecipe deletes a recipe and its ingredient rows.
func (s *Service) RemoveRecipe(ctx context.Context, id uint) error {
	if err := s.call(ctx, "delete recipe", func(ctx context.Context) error {
		return s.store.DeleteRecipe(ctx, id)
	}); err != nil {
		applog.Error(ctx, "remove recipe failed", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	if idx := s.recipeIndexLocked(id); idx >= 0 {
		s.recipes = slices.Delete(slices.Clone(s.recipes), idx, idx+1)
	}
	s.mu.Unlock()

	applog.Info(ctx, "recipe removed", "id", id)
	return nil
}

// buildRecipe validates draft and computes the recipe it commits to.
func (s *Service) buildRecipe(draft Draft) (models.Recipe, error) {
	if err := draft.Validate(); err != nil {
		return models.Recipe{}, err
	}
	ingredients := s.resolveIngredients(draft.Ingredients)
	totals, err := nutrition.Aggregate(ingredients)
	if err != nil {
		return models.Recipe{}, invalid("ingredients", err.Error())
	}
	return models.Recipe{
		Name:          strings.TrimSpace(draft.Name),
		Description:   strings.TrimSpace(draft.Description),
		TotalServings: draft.TotalServings,
		Nutrients:     totals,
		Ingredients:   ingredients,
	}, nil
}

// resolveIngredients swaps each ingredient's food for the catalog's current
// value. Foods that have since been removed keep the values the draft holds,
// and so does an id that an import has reassigned to a food of another name.
func (s *Service) resolveIngredients(in []models.Ingredient) []models.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ingredient, len(in))
	for i, ingredient := range in {
		idx, ok := s.foodIndex[ingredient.Food.ID]
		if ok && ingredient.Food.ID != 0 && strings.EqualFold(s.foods[idx].Name, ingredient.Food.Name) {
			ingredient.Food = s.foods[idx]
		}
		out[i] = ingredient
	}
	return out
}

// reloadRecipes refreshes the recipe catalog after a commit and returns the
// stored version of committed. If the reload fails the committed recipe is
// spliced into memory instead.
func (s *Service) reloadRecipes(ctx context.Context, committed models.Recipe) models.Recipe {
	var recipes []models.Recipe
	err := s.call(ctx, "list recipes", func(ctx context.Context) error {
		var err error
		recipes, err = s.store.ListRecipes(ctx)
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		applog.Warn(ctx, "recipe reload failed, keeping local copy", "id", committed.ID, "error", err)
		if idx := s.recipeIndexLocked(committed.ID); idx >= 0 {
			s.recipes[idx] = committed
		} else {
			s.recipes = append(s.recipes, committed)
		}
		return cloneRecipe(committed)
	}
	s.recipes = recipes
	if idx := s.recipeIndexLocked(committed.ID); idx >= 0 {
		return cloneRecipe(s.recipes[idx])
	}
	return cloneRecipe(committed)
}
