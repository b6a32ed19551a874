package catalog

import (
	"slices"
	"strings"

	"nutrilog/internal/nutrition"
	"nutrilog/models"
)

// Draft is an uncommitted recipe. Every mutator returns a new Draft and leaves
// the receiver untouched.
type Draft struct {
	// EditingID is the recipe being edited, or zero for a new recipe.
	EditingID     uint                `json:"editing_id,omitempty"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	TotalServings int                 `json:"total_servings"`
	Ingredients   []models.Ingredient `json:"ingredients"`
}

// NewDraft starts an empty recipe with one serving.
func NewDraft() Draft {
	return Draft{TotalServings: 1, Ingredients: []models.Ingredient{}}
}

// DraftFrom starts an edit of recipe. The ingredient list is copied so the
// draft never aliases the saved recipe.
func DraftFrom(recipe models.Recipe) Draft {
	ingredients := make([]models.Ingredient, len(recipe.Ingredients))
	copy(ingredients, recipe.Ingredients)
	return Draft{
		EditingID:     recipe.ID,
		Name:          recipe.Name,
		Description:   recipe.Description,
		TotalServings: recipe.TotalServings,
		Ingredients:   ingredients,
	}
}

// Editing reports whether the draft edits an existing recipe.
func (d Draft) Editing() bool { return d.EditingID != 0 }

func (d Draft) WithName(name string) Draft {
	d.Ingredients = slices.Clone(d.Ingredients)
	d.Name = name
	return d
}

func (d Draft) WithDescription(description string) Draft {
	d.Ingredients = slices.Clone(d.Ingredients)
	d.Description = description
	return d
}

func (d Draft) WithServings(servings int) Draft {
	d.Ingredients = slices.Clone(d.Ingredients)
	d.TotalServings = servings
	return d
}

// AddIngredient appends quantityText of food, measured in the food's serving
// unit. A nil food or a quantity that is not a positive number leaves the
// draft as it is.
func (d Draft) AddIngredient(food *models.Food, quantityText string) Draft {
	if food == nil {
		return d
	}
	qty, ok := parseNumber(quantityText)
	if !ok || qty <= 0 {
		return d
	}
	out := d
	out.Ingredients = append(slices.Clone(d.Ingredients), models.Ingredient{
		Food:     *food,
		Quantity: qty,
		Unit:     food.ServingUnit,
	})
	return out
}

// RemoveIngredient drops the ingredient at index. Out of range is a no-op.
func (d Draft) RemoveIngredient(index int) Draft {
	if index < 0 || index >= len(d.Ingredients) {
		return d
	}
	out := d
	out.Ingredients = slices.Delete(slices.Clone(d.Ingredients), index, index+1)
	return out
}

// Preview computes the totals and per-serving values the draft would commit with.
func (d Draft) Preview() (totals, perServing models.Nutrients, err error) {
	totals, err = nutrition.Aggregate(d.Ingredients)
	if err != nil {
		return models.Nutrients{}, models.Nutrients{}, err
	}
	perServing, err = nutrition.PerServing(totals, d.TotalServings)
	if err != nil {
		return totals, models.Nutrients{}, err
	}
	return totals, perServing, nil
}

// Validate checks the draft can be committed.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name", "recipe name is required")
	}
	if len(d.Ingredients) == 0 {
		return invalid("ingredients", "recipe must have at least one ingredient")
	}
	if d.TotalServings < 1 {
		return invalid("total_servings", "total servings must be at least 1")
	}
	return nil
}
