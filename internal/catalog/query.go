package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"nutrilog/internal/nutrition"
	"nutrilog/models"
)

// SortKey selects the ordering applied by SortFoods and SortRecipes.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByCalories SortKey = "calories"
)

// ParseSortKey reads a sort key; blank selects SortByName.
func ParseSortKey(text string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(text))) {
	case "", SortByName:
		return SortByName, nil
	case SortByCalories:
		return SortByCalories, nil
	default:
		return "", invalid("sort", fmt.Sprintf("unknown sort key %q", text))
	}
}

// FilterFoods keeps foods whose name contains query, ignoring case. An empty
// query returns items unchanged.
func FilterFoods(items []models.Food, query string) []models.Food {
	return filterByName(items, query, func(f models.Food) string { return f.Name })
}

// FilterRecipes keeps recipes whose name contains query, ignoring case.
func FilterRecipes(items []models.Recipe, query string) []models.Recipe {
	return filterByName(items, query, func(r models.Recipe) string { return r.Name })
}

// SortFoods returns a stably sorted copy of items. SortByCalories orders by
// calories per serving, highest first.
func SortFoods(items []models.Food, key SortKey) []models.Food {
	out := slices.Clone(items)
	switch key {
	case SortByCalories:
		slices.SortStableFunc(out, func(a, b models.Food) int {
			return cmp.Compare(b.Calories, a.Calories)
		})
	default:
		col := newCollator()
		slices.SortStableFunc(out, func(a, b models.Food) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
	return out
}

// SortRecipes returns a stably sorted copy of items. SortByCalories orders by
// calories per serving of the recipe, not by its total.
func SortRecipes(items []models.Recipe, key SortKey) []models.Recipe {
	out := slices.Clone(items)
	switch key {
	case SortByCalories:
		slices.SortStableFunc(out, func(a, b models.Recipe) int {
			return cmp.Compare(nutrition.CaloriesPerServing(b), nutrition.CaloriesPerServing(a))
		})
	default:
		col := newCollator()
		slices.SortStableFunc(out, func(a, b models.Recipe) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
	return out
}

// newCollator returns a fresh collator per sort; a Collator is not safe for
// concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.Und)
}

func filterByName[T any](items []T, query string, name func(T) string) []T {
	if query == "" {
		return items
	}
	query = strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(name(item)), query) {
			out = append(out, item)
		}
	}
	return out
}
