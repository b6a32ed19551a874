package models

// Ingredient is a recipe line item: a quantity of a food, expressed in the
// food's serving unit.
type Ingredient struct {
	Food     Food    `json:"food"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// RecipeIngredient is the persisted form of an Ingredient. The food's values at
// commit time are copied into the row so later edits or deletes of the food do
// not change saved recipes.
type RecipeIngredient struct {
	ID       uint    `gorm:"primaryKey"`
	RecipeID uint    `gorm:"not null;index"`
	Position int     `gorm:"not null"`
	Quantity float64 `gorm:"not null"`
	Unit     string  `gorm:"type:varchar(16);not null"`

	// --- Food snapshot ---
	FoodID          uint      `gorm:"not null;index"`
	FoodName        string    `gorm:"not null"`
	FoodServingSize float64   `gorm:"not null"`
	FoodServingUnit string    `gorm:"type:varchar(16);not null"`
	FoodNutrients   Nutrients `gorm:"embedded;embeddedPrefix:food_"`
}

// NewRecipeIngredient builds the row stored for ingredient at position within recipeID.
func NewRecipeIngredient(recipeID uint, position int, ingredient Ingredient) RecipeIngredient {
	return RecipeIngredient{
		RecipeID:        recipeID,
		Position:        position,
		Quantity:        ingredient.Quantity,
		Unit:            ingredient.Unit,
		FoodID:          ingredient.Food.ID,
		FoodName:        ingredient.Food.Name,
		FoodServingSize: ingredient.Food.ServingSize,
		FoodServingUnit: ingredient.Food.ServingUnit,
		FoodNutrients:   ingredient.Food.Nutrients,
	}
}

// Ingredient resolves the row back into a line item with a full Food value.
func (ri RecipeIngredient) Ingredient() Ingredient {
	return Ingredient{
		Food: Food{
			ID:          ri.FoodID,
			Name:        ri.FoodName,
			ServingSize: ri.FoodServingSize,
			ServingUnit: ri.FoodServingUnit,
			Nutrients:   ri.FoodNutrients,
		},
		Quantity: ri.Quantity,
		Unit:     ri.Unit,
	}
}
