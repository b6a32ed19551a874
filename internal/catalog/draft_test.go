package catalog

import (
	"errors"
	"testing"

	"nutrilog/models"
)

var rice = models.Food{
	ID: 1, Name: "Rice", ServingSize: 100, ServingUnit: "g",
	Nutrients: models.Nutrients{Calories: 130, Protein: 2.7, Carbohydrates: 28.2, Fat: 0.3},
}

func TestDraftAddIngredient(t *testing.T) {
	t.Parallel()

	base := NewDraft()
	if base.TotalServings != 1 || len(base.Ingredients) != 0 {
		t.Fatalf("unexpected new draft %+v", base)
	}

	food := rice
	for _, qty := range []string{"", "abc", "0", "-10"} {
		if got := base.AddIngredient(&food, qty); len(got.Ingredients) != 0 {
			t.Fatalf("AddIngredient(%q) should be a no-op, got %+v", qty, got.Ingredients)
		}
	}
	if got := base.AddIngredient(nil, "100"); len(got.Ingredients) != 0 {
		t.Fatal("AddIngredient(nil) should be a no-op")
	}

	next := base.AddIngredient(&food, "200")
	if len(base.Ingredients) != 0 {
		t.Fatal("AddIngredient must not mutate the receiver")
	}
	if len(next.Ingredients) != 1 {
		t.Fatalf("expected one ingredient, got %d", len(next.Ingredients))
	}
	got := next.Ingredients[0]
	if got.Quantity != 200 || got.Unit != "g" || got.Food.ID != rice.ID {
		t.Fatalf("unexpected ingredient %+v", got)
	}
}

func TestDraftRemoveIngredient(t *testing.T) {
	t.Parallel()

	food := rice
	d := NewDraft().AddIngredient(&food, "100").AddIngredient(&food, "50").AddIngredient(&food, "25")

	for _, idx := range []int{-1, 3, 10} {
		if got := d.RemoveIngredient(idx); len(got.Ingredients) != 3 {
			t.Fatalf("RemoveIngredient(%d) should be a no-op", idx)
		}
	}

	got := d.RemoveIngredient(1)
	if len(got.Ingredients) != 2 || got.Ingredients[0].Quantity != 100 || got.Ingredients[1].Quantity != 25 {
		t.Fatalf("unexpected ingredients after removal %+v", got.Ingredients)
	}
	if len(d.Ingredients) != 3 || d.Ingredients[1].Quantity != 50 {
		t.Fatal("RemoveIngredient must not mutate the receiver")
	}
}

func TestDraftFromCopiesIngredients(t *testing.T) {
	t.Parallel()

	recipe := models.Recipe{
		ID: 7, Name: "Rice Bowl", TotalServings: 2,
		Ingredients: []models.Ingredient{{Food: rice, Quantity: 100, Unit: "g"}},
	}
	d := DraftFrom(recipe)
	if !d.Editing() || d.EditingID != 7 || d.Name != "Rice Bowl" || d.TotalServings != 2 {
		t.Fatalf("unexpected draft %+v", d)
	}

	d.Ingredients[0].Quantity = 999
	food := rice
	d = d.AddIngredient(&food, "10")
	if recipe.Ingredients[0].Quantity != 100 || len(recipe.Ingredients) != 1 {
		t.Fatalf("draft edits leaked into saved recipe: %+v", recipe.Ingredients)
	}
}

func TestDraftSetters(t *testing.T) {
	t.Parallel()

	d := NewDraft().WithName("Soup").WithDescription("hot").WithServings(4)
	if d.Name != "Soup" || d.Description != "hot" || d.TotalServings != 4 {
		t.Fatalf("unexpected draft %+v", d)
	}
}

func TestDraftValidate(t *testing.T) {
	t.Parallel()

	food := rice
	valid := NewDraft().WithName("Bowl").AddIngredient(&food, "100")
	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{name: "valid", draft: valid},
		{name: "blank name", draft: valid.WithName("  "), field: "name"},
		{name: "no ingredients", draft: valid.RemoveIngredient(0), field: "ingredients"},
		{name: "zero servings", draft: valid.WithServings(0), field: "total_servings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.draft.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected ValidationError on %q, got %v", tt.field, err)
			}
		})
	}
}

func TestDraftPreview(t *testing.T) {
	t.Parallel()

	food := rice
	d := NewDraft().WithName("Bowl").WithServings(2).AddIngredient(&food, "200")
	totals, perServing, err := d.Preview()
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if totals.Calories != 260 || totals.Protein != 5.4 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if perServing.Calories != 130 || perServing.Protein != 2.7 {
		t.Fatalf("unexpected per serving %+v", perServing)
	}

	if _, _, err := d.WithServings(0).Preview(); err == nil {
		t.Fatal("expected error for zero servings")
	}
}
