package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutrilog/internal/db"
	applog "nutrilog/internal/log"
	"nutrilog/internal/nutrition"
	"nutrilog/models"
)

// New returns an in-memory sqlite database seeded with a small pantry and one recipe.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := db.Open(sqlite.Open("file:nutrilog-mock-" + uuid.NewString() + "?mode=memory&cache=shared"))
	if err != nil {
		return nil, err
	}
	database.Logger = logger.Default.LogMode(logger.Silent)

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// A shared in-memory database lives only as long as a connection does.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, db.NewStore(database)); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func food(name string, size float64, unit string, n models.Nutrients) models.Food {
	return models.Food{Name: name, ServingSize: size, ServingUnit: unit, Nutrients: n}
}

func seed(ctx context.Context, store *db.Store) error {
	applog.Debug(ctx, "seeding mock database")

	rice := food("White Rice", 100, "g", models.Nutrients{Calories: 130, Protein: 2.7, Carbohydrates: 28.2, Fat: 0.3, Fiber: 0.4, Sugar: 0.1, Sodium: 1})
	chicken := food("Chicken Breast", 100, "g", models.Nutrients{Calories: 165, Protein: 31, Fat: 3.6, Sodium: 74})
	broccoli := food("Broccoli", 100, "g", models.Nutrients{Calories: 34, Protein: 2.8, Carbohydrates: 6.6, Fat: 0.4, Fiber: 2.6, Sugar: 1.7, Sodium: 33})
	oil := food("Olive Oil", 1, "tbsp", models.Nutrients{Calories: 119, Fat: 13.5, Sodium: 0.3})
	egg := food("Egg", 1, "item", models.Nutrients{Calories: 72, Protein: 6.3, Carbohydrates: 0.4, Fat: 4.8, Sugar: 0.2, Sodium: 71})
	oats := food("Rolled Oats", 40, "g", models.Nutrients{Calories: 150, Protein: 5, Carbohydrates: 27, Fat: 2.5, Fiber: 4, Sugar: 1})
	milk := food("Milk", 250, "ml", models.Nutrients{Calories: 122, Protein: 8.1, Carbohydrates: 11.7, Fat: 4.8, Sugar: 12.3, Sodium: 107})

	foods := []*models.Food{&rice, &chicken, &broccoli, &oil, &egg, &oats, &milk}
	for _, f := range foods {
		if err := store.InsertFood(ctx, f); err != nil {
			return err
		}
	}

	recipes := []struct {
		recipe      models.Recipe
		ingredients []models.Ingredient
	}{
		{
			recipe: models.Recipe{Name: "Chicken Rice Bowl", Description: "Rice, seared chicken and steamed broccoli.", TotalServings: 2},
			ingredients: []models.Ingredient{
				{Food: rice, Quantity: 200, Unit: rice.ServingUnit},
				{Food: chicken, Quantity: 150, Unit: chicken.ServingUnit},
				{Food: broccoli, Quantity: 100, Unit: broccoli.ServingUnit},
				{Food: oil, Quantity: 1, Unit: oil.ServingUnit},
			},
		},
		{
			recipe: models.Recipe{Name: "Overnight Oats", Description: "Oats soaked in milk.", TotalServings: 1},
			ingredients: []models.Ingredient{
				{Food: oats, Quantity: 80, Unit: oats.ServingUnit},
				{Food: milk, Quantity: 200, Unit: milk.ServingUnit},
			},
		},
	}
	for _, entry := range recipes {
		totals, err := nutrition.Aggregate(entry.ingredients)
		if err != nil {
			return fmt.Errorf("seed %s: %w", entry.recipe.Name, err)
		}
		recipe := entry.recipe
		recipe.Nutrients = totals
		if err := store.InsertRecipe(ctx, &recipe); err != nil {
			return err
		}
		if err := store.InsertIngredients(ctx, recipe.ID, entry.ingredients); err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
