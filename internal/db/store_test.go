package db

import (
	"context"
	"errors"
	"testing"

	"nutrilog/internal/catalog"
	"nutrilog/models"
)

func testFood(name string, calories float64) models.Food {
	return models.Food{
		Name:        name,
		ServingSize: 100,
		ServingUnit: "g",
		Nutrients:   models.Nutrients{Calories: calories, Protein: 2.5},
	}
}

func TestStoreFoodLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	rice := testFood("Rice", 130)
	apple := testFood("Apple", 52)
	for _, food := range []*models.Food{&rice, &apple} {
		if err := store.InsertFood(ctx, food); err != nil {
			t.Fatalf("InsertFood(%s) error = %v", food.Name, err)
		}
		if food.ID == 0 {
			t.Fatalf("expected id for %s", food.Name)
		}
	}

	foods, err := store.ListFoods(ctx)
	if err != nil {
		t.Fatalf("ListFoods() error = %v", err)
	}
	if len(foods) != 2 || foods[0].Name != "Apple" || foods[1].Name != "Rice" {
		t.Fatalf("expected foods ordered by name, got %+v", foods)
	}

	update := testFood("Brown Rice", 112)
	update.Protein = 0
	if err := store.UpdateFood(ctx, rice.ID, &update); err != nil {
		t.Fatalf("UpdateFood() error = %v", err)
	}
	foods, _ = store.ListFoods(ctx)
	if foods[1].Name != "Brown Rice" || foods[1].Calories != 112 || foods[1].Protein != 0 {
		t.Fatalf("update not applied, zero values included: %+v", foods[1])
	}

	missing := testFood("Ghost", 1)
	if err := store.UpdateFood(ctx, 999, &missing); !catalog.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	if err := store.DeleteFood(ctx, apple.ID); err != nil {
		t.Fatalf("DeleteFood() error = %v", err)
	}
	if err := store.DeleteFood(ctx, apple.ID); !catalog.IsNotFound(err) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestStoreRecipeWithIngredients(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	rice := testFood("Rice", 130)
	oats := testFood("Oats", 389)
	for _, food := range []*models.Food{&rice, &oats} {
		if err := store.InsertFood(ctx, food); err != nil {
			t.Fatalf("InsertFood() error = %v", err)
		}
	}

	recipe := models.Recipe{Name: "Porridge", TotalServings: 2, Nutrients: models.Nutrients{Calories: 519}}
	if err := store.InsertRecipe(ctx, &recipe); err != nil {
		t.Fatalf("InsertRecipe() error = %v", err)
	}
	ingredients := []models.Ingredient{
		{Food: oats, Quantity: 100, Unit: "g"},
		{Food: rice, Quantity: 100, Unit: "g"},
	}
	if err := store.InsertIngredients(ctx, recipe.ID, ingredients); err != nil {
		t.Fatalf("InsertIngredients() error = %v", err)
	}

	// Later food edits do not reach saved ingredient rows.
	changed := testFood("Rolled Oats", 400)
	if err := store.UpdateFood(ctx, oats.ID, &changed); err != nil {
		t.Fatalf("UpdateFood() error = %v", err)
	}

	recipes, err := store.ListRecipes(ctx)
	if err != nil {
		t.Fatalf("ListRecipes() error = %v", err)
	}
	if len(recipes) != 1 || len(recipes[0].Ingredients) != 2 {
		t.Fatalf("unexpected recipes %+v", recipes)
	}
	first := recipes[0].Ingredients[0]
	if first.Food.ID != oats.ID || first.Food.Name != "Oats" || first.Food.Calories != 389 || first.Quantity != 100 {
		t.Fatalf("unexpected first ingredient %+v", first)
	}
	if recipes[0].Ingredients[1].Food.Name != "Rice" {
		t.Fatalf("ingredient order not preserved: %+v", recipes[0].Ingredients)
	}

	if err := store.DeleteIngredients(ctx, recipe.ID); err != nil {
		t.Fatalf("DeleteIngredients() error = %v", err)
	}
	recipes, _ = store.ListRecipes(ctx)
	if len(recipes[0].Ingredients) != 0 || recipes[0].Ingredients == nil {
		t.Fatalf("expected empty ingredient list, got %#v", recipes[0].Ingredients)
	}

	if err := store.InsertIngredients(ctx, recipe.ID, ingredients[:1]); err != nil {
		t.Fatalf("InsertIngredients() error = %v", err)
	}
	if err := store.DeleteRecipe(ctx, recipe.ID); err != nil {
		t.Fatalf("DeleteRecipe() error = %v", err)
	}
	var rows int64
	store.db.Model(&models.RecipeIngredient{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("expected ingredient rows to cascade, %d left", rows)
	}
	if err := store.DeleteRecipe(ctx, recipe.ID); !catalog.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStoreUpdateRecipeUnknown(t *testing.T) {
	t.Parallel()

	store := NewStore(openTestDB(t))
	recipe := models.Recipe{Name: "Nothing", TotalServings: 1}
	if err := store.UpdateRecipe(context.Background(), 5, &recipe); !catalog.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStoreAtomicRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))
	boom := errors.New("boom")

	err := store.Atomic(ctx, func(tx catalog.Store) error {
		food := testFood("Rice", 130)
		if err := tx.InsertFood(ctx, &food); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic() error = %v, want boom", err)
	}
	foods, err := store.ListFoods(ctx)
	if err != nil {
		t.Fatalf("ListFoods() error = %v", err)
	}
	if len(foods) != 0 {
		t.Fatalf("expected rollback, found %+v", foods)
	}
}

func TestStoreReplaceAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))
	old := testFood("Old", 1)
	if err := store.InsertFood(ctx, &old); err != nil {
		t.Fatalf("InsertFood() error = %v", err)
	}

	rice := testFood("Rice", 130)
	rice.ID = 40
	foods := []models.Food{rice, testFood("Oats", 389)}
	recipes := []models.Recipe{{
		ID: 7, Name: "Rice Bowl", TotalServings: 1,
		Nutrients:   models.Nutrients{Calories: 130},
		Ingredients: []models.Ingredient{{Food: rice, Quantity: 100, Unit: "g"}},
	}}
	if err := store.ReplaceAll(ctx, foods, recipes); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if foods[1].ID == 0 || foods[1].ID == 40 {
		t.Fatalf("expected a fresh id for Oats, got %d", foods[1].ID)
	}

	listed, _ := store.ListFoods(ctx)
	if len(listed) != 2 || listed[1].ID != 40 {
		t.Fatalf("unexpected foods after replace %+v", listed)
	}
	listedRecipes, _ := store.ListRecipes(ctx)
	if len(listedRecipes) != 1 || listedRecipes[0].ID != 7 || len(listedRecipes[0].Ingredients) != 1 {
		t.Fatalf("unexpected recipes after replace %+v", listedRecipes)
	}

	next := testFood("Barley", 354)
	if err := store.InsertFood(ctx, &next); err != nil {
		t.Fatalf("InsertFood() error = %v", err)
	}
	if next.ID == 40 || next.ID == foods[1].ID {
		t.Fatalf("new id %d collides with imported ids", next.ID)
	}
}

func TestServiceCommitThroughTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := openTestDB(t)
	svc := catalog.New(NewStore(database), catalog.Options{})
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rice, err := svc.AddFood(ctx, catalog.FoodDraft{Name: "Rice", ServingSize: "100", ServingUnit: "g", Calories: "130", Protein: "2.7"})
	if err != nil {
		t.Fatalf("AddFood() error = %v", err)
	}

	draft := catalog.NewDraft().WithName("Rice Bowl").WithServings(2).AddIngredient(&rice, "200")
	recipe, err := svc.Commit(ctx, draft)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if recipe.Calories != 260 || recipe.Protein != 5.4 || len(recipe.Ingredients) != 1 {
		t.Fatalf("unexpected committed recipe %+v", recipe)
	}

	edited, err := svc.CommitEdit(ctx, recipe.ID, catalog.DraftFrom(recipe).AddIngredient(&rice, "100"))
	if err != nil {
		t.Fatalf("CommitEdit() error = %v", err)
	}
	if edited.Calories != 390 || len(edited.Ingredients) != 2 {
		t.Fatalf("unexpected edited recipe %+v", edited)
	}

	reloaded := catalog.New(NewStore(database), catalog.Options{})
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, ok := reloaded.Recipe(recipe.ID); !ok || got.Calories != 390 || len(got.Ingredients) != 2 {
		t.Fatalf("persisted recipe = %+v, %v", got, ok)
	}
}
