// Package nutrition scales and sums per-serving food values into recipe totals.
package nutrition

import (
	"errors"
	"fmt"
	"math"

	"nutrilog/models"
)

var (
	// ErrInvalidServingSize reports a food whose reference serving is not a positive number.
	ErrInvalidServingSize = errors.New("nutrition: serving size must be greater than zero")
	// ErrInvalidQuantity reports an ingredient quantity that is not a positive number.
	ErrInvalidQuantity = errors.New("nutrition: quantity must be greater than zero")
	// ErrInvalidServings reports a per-serving divisor below one.
	ErrInvalidServings = errors.New("nutrition: servings must be at least one")
	// ErrOverflow reports a scaled or summed value that is not a finite number.
	ErrOverflow = errors.New("nutrition: value out of range")
)

// Round rounds v half-up at one decimal place.
func Round(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Ratio is the factor applied to a food's per-serving values for the given ingredient.
func Ratio(ingredient models.Ingredient) (float64, error) {
	size := ingredient.Food.ServingSize
	if !(size > 0) || math.IsInf(size, 0) {
		return 0, ErrInvalidServingSize
	}
	qty := ingredient.Quantity
	if !(qty > 0) || math.IsInf(qty, 0) {
		return 0, ErrInvalidQuantity
	}
	ratio := qty / size
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0, ErrOverflow
	}
	return ratio, nil
}

// Aggregate sums every ingredient's scaled nutrients and rounds each total to
// one decimal place. An empty list yields all-zero totals.
func Aggregate(ingredients []models.Ingredient) (models.Nutrients, error) {
	var totals models.Nutrients
	for i, ingredient := range ingredients {
		ratio, err := Ratio(ingredient)
		if err != nil {
			return models.Nutrients{}, fmt.Errorf("ingredient %d (%s): %w", i, ingredient.Food.Name, err)
		}
		scaled := ingredient.Food.Nutrients.Scale(ratio)
		if !finite(scaled) {
			return models.Nutrients{}, fmt.Errorf("ingredient %d (%s): %w", i, ingredient.Food.Name, ErrOverflow)
		}
		totals = totals.Add(scaled)
		if !finite(totals) {
			return models.Nutrients{}, fmt.Errorf("ingredient %d (%s): totals: %w", i, ingredient.Food.Name, ErrOverflow)
		}
	}
	// Rounding scales by ten, which can still overflow near the float64 limit.
	rounded := totals.Map(Round)
	if !finite(rounded) {
		return models.Nutrients{}, ErrOverflow
	}
	return rounded, nil
}

func finite(n models.Nutrients) bool {
	ok := true
	n.Map(func(v float64) float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			ok = false
		}
		return v
	})
	return ok
}

// PerServing divides totals by servings and rounds each field the same way Aggregate does.
func PerServing(totals models.Nutrients, servings int) (models.Nutrients, error) {
	if servings < 1 {
		return models.Nutrients{}, ErrInvalidServings
	}
	divisor := float64(servings)
	return totals.Map(func(v float64) float64 { return Round(v / divisor) }), nil
}

// CaloriesPerServing is the unrounded per-serving calorie value used for ordering recipes.
func CaloriesPerServing(recipe models.Recipe) float64 {
	if recipe.TotalServings < 1 {
		return recipe.Calories
	}
	return recipe.Calories / float64(recipe.TotalServings)
}
