package catalog

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	applog "nutrilog/internal/log"
	"nutrilog/models"
)

// DefaultServingUnit is applied when a draft leaves the unit blank.
const DefaultServingUnit = "g"

var servingUnits = []string{"g", "ml", "oz", "lb", "cup", "tbsp", "tsp", "item", "slice", "piece"}

// leadingNumber matches the numeric prefix of a text field, so "120 kcal" reads as 120.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ServingUnits lists the accepted serving unit tokens.
func ServingUnits() []string {
	return slices.Clone(servingUnits)
}

// FoodDraft is the text form of a food as entered by the user.
type FoodDraft struct {
	Name          string `json:"name"`
	ServingSize   string `json:"serving_size"`
	ServingUnit   string `json:"serving_unit"`
	Calories      string `json:"calories"`
	Protein       string `json:"protein"`
	Carbohydrates string `json:"carbohydrates"`
	Fat           string `json:"fat"`
	Fiber         string `json:"fiber"`
	Sugar         string `json:"sugar"`
	Sodium        string `json:"sodium"`
}

// FoodDraftFrom renders food back into editable text fields.
func FoodDraftFrom(food models.Food) FoodDraft {
	return FoodDraft{
		Name:          food.Name,
		ServingSize:   formatNumber(food.ServingSize),
		ServingUnit:   food.ServingUnit,
		Calories:      formatNumber(food.Calories),
		Protein:       formatNumber(food.Protein),
		Carbohydrates: formatNumber(food.Carbohydrates),
		Fat:           formatNumber(food.Fat),
		Fiber:         formatNumber(food.Fiber),
		Sugar:         formatNumber(food.Sugar),
		Sodium:        formatNumber(food.Sodium),
	}
}

// Validate converts the draft into a Food. Name and serving size are required;
// nutrient fields that are negative or unreadable become zero.
func (d FoodDraft) Validate() (models.Food, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return models.Food{}, invalid("name", "name is required")
	}
	size, ok := parseNumber(d.ServingSize)
	if !ok || size <= 0 {
		return models.Food{}, invalid("serving_size", "serving size must be a positive number")
	}
	unit := strings.ToLower(strings.TrimSpace(d.ServingUnit))
	if unit == "" {
		unit = DefaultServingUnit
	}
	if !slices.Contains(servingUnits, unit) {
		return models.Food{}, invalid("serving_unit", "unknown serving unit "+strconv.Quote(d.ServingUnit))
	}
	return models.Food{
		Name:        name,
		ServingSize: size,
		ServingUnit: unit,
		Nutrients: models.Nutrients{
			Calories:      clampNutrient(d.Calories),
			Protein:       clampNutrient(d.Protein),
			Carbohydrates: clampNutrient(d.Carbohydrates),
			Fat:           clampNutrient(d.Fat),
			Fiber:         clampNutrient(d.Fiber),
			Sugar:         clampNutrient(d.Sugar),
			Sodium:        clampNutrient(d.Sodium),
		},
	}, nil
}

// AddFood validates draft, persists it and appends the stored food to the catalog.
func (s *Service) AddFood(ctx context.Context, draft FoodDraft) (models.Food, error) {
	food, err := draft.Validate()
	if err != nil {
		return models.Food{}, err
	}
	if err := s.call(ctx, "insert food", func(ctx context.Context) error {
		return s.store.InsertFood(ctx, &food)
	}); err != nil {
		applog.Error(ctx, "add food failed", "name", food.Name, "error", err)
		return models.Food{}, err
	}

	s.mu.Lock()
	s.foodIndex[food.ID] = len(s.foods)
	s.foods = append(s.foods, food)
	s.mu.Unlock()

	applog.Info(ctx, "food added", "id", food.ID, "name", food.Name)
	return food, nil
}

// UpdateFood replaces every field of the food with the given id.
func (s *Service) UpdateFood(ctx context.Context, id uint, draft FoodDraft) (models.Food, error) {
	food, err := draft.Validate()
	if err != nil {
		return models.Food{}, err
	}
	food.ID = id
	if current, ok := s.Food(id); ok {
		food.CreatedAt = current.CreatedAt
	}
	if err := s.call(ctx, "update food", func(ctx context.Context) error {
		return s.store.UpdateFood(ctx, id, &food)
	}); err != nil {
		applog.Error(ctx, "update food failed", "id", id, "error", err)
		return models.Food{}, err
	}

	s.mu.Lock()
	if idx, ok := s.foodIndex[id]; ok {
		s.foods[idx] = food
	} else {
		s.foodIndex[id] = len(s.foods)
		s.foods = append(s.foods, food)
	}
	s.mu.Unlock()

	applog.Info(ctx, "food updated", "id", id, "name", food.Name)
	return food, nil
}

// RemoveFood deletes a food from storage and the catalog. A food storage no
// longer knows about counts as removed. Recipes that used the food keep their
// own copy of its values.
func (s *Service) RemoveFood(ctx context.Context, id uint) error {
	err := s.call(ctx, "delete food", func(ctx context.Context) error {
		return s.store.DeleteFood(ctx, id)
	})
	if err != nil && !IsNotFound(err) {
		applog.Error(ctx, "remove food failed", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	if idx, ok := s.foodIndex[id]; ok {
		foods := slices.Delete(slices.Clone(s.foods), idx, idx+1)
		s.setFoodsLocked(foods)
	}
	s.mu.Unlock()

	applog.Info(ctx, "food removed", "id", id)
	return nil
}

// parseNumber reads the leading number of text. NaN and infinities are rejected.
func parseNumber(text string) (float64, bool) {
	match := leadingNumber.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clampNutrient(text string) float64 {
	v, ok := parseNumber(text)
	if !ok || v < 0 {
		return 0
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
