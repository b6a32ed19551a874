package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"nutrilog/internal/catalog"
	"nutrilog/internal/config"
	"nutrilog/internal/db"
	applog "nutrilog/internal/log"
)

var (
	headerPattern   = regexp.MustCompile(`[^a-z0-9]+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// headerAliases maps normalised CSV headers onto food draft fields.
var headerAliases = map[string]string{
	"name":          "name",
	"food":          "name",
	"food_name":     "name",
	"serving_size":  "serving_size",
	"serving":       "serving_size",
	"serving_unit":  "serving_unit",
	"unit":          "serving_unit",
	"calories":      "calories",
	"kcal":          "calories",
	"energy_kcal":   "calories",
	"protein":       "protein",
	"protein_g":     "protein",
	"carbohydrates": "carbohydrates",
	"carbs":         "carbohydrates",
	"carbs_g":       "carbohydrates",
	"fat":           "fat",
	"fat_g":         "fat",
	"fiber":         "fiber",
	"fibre":         "fiber",
	"fiber_g":       "fiber",
	"sugar":         "sugar",
	"sugar_g":       "sugar",
	"sodium":        "sodium",
	"sodium_mg":     "sodium",
}

type summary struct {
	Added   int
	Updated int
	Skipped int
}

func main() {
	path := "foods.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), path); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("import path must not be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("locate import file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	svc := catalog.New(db.NewStore(database), catalog.Options{Timeout: cfg.Storage.Timeout})
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := restoreSnapshot(ctx, svc, path); err != nil {
			return err
		}
		stats := svc.Stats()
		fmt.Fprintf(os.Stdout, "Restored %d foods and %d recipes from %s\n", stats.Foods, stats.Recipes, filepath.Base(path))
		return nil
	}

	result, err := importFoods(ctx, svc, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %d foods (%d updated, %d skipped) from %s\n",
		result.Added, result.Updated, result.Skipped, filepath.Base(path))
	return nil
}

func restoreSnapshot(ctx context.Context, svc *catalog.Service, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := svc.Import(ctx, payload); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

// importFoods adds every CSV row as a food, updating an existing food with the
// same name instead of duplicating it. Rows that fail validation are skipped.
func importFoods(ctx context.Context, svc *catalog.Service, path string) (summary, error) {
	records, err := readCSV(path)
	if err != nil {
		return summary{}, fmt.Errorf("read csv: %w", err)
	}

	existing := make(map[string]uint)
	for _, food := range svc.Foods() {
		existing[strings.ToLower(food.Name)] = food.ID
	}

	var result summary
	for idx, record := range records {
		draft := buildFoodDraft(record)
		key := strings.ToLower(strings.TrimSpace(draft.Name))

		if id, ok := existing[key]; ok {
			if _, err := svc.UpdateFood(ctx, id, draft); err != nil {
				if skip(ctx, idx, draft.Name, err) {
					result.Skipped++
					continue
				}
				return result, fmt.Errorf("record %d (%s): %w", idx+1, draft.Name, err)
			}
			result.Updated++
			continue
		}

		food, err := svc.AddFood(ctx, draft)
		if err != nil {
			if skip(ctx, idx, draft.Name, err) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("record %d (%s): %w", idx+1, draft.Name, err)
		}
		existing[key] = food.ID
		result.Added++
	}
	return result, nil
}

// skip reports whether err only rejects the row rather than the whole import.
func skip(ctx context.Context, idx int, name string, err error) bool {
	var validation *catalog.ValidationError
	if !errors.As(err, &validation) {
		return false
	}
	applog.Warn(ctx, "skipping invalid food row", "row", idx+1, "name", name, "field", validation.Field, "reason", validation.Message)
	return true
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = headerAliases[normalizeHeader(key)]
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if key == "" || idx >= len(row) {
				continue
			}
			record[key] = normalizeValue(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildFoodDraft(row map[string]string) catalog.FoodDraft {
	return catalog.FoodDraft{
		Name:          cleanWhitespace.ReplaceAllString(row["name"], " "),
		ServingSize:   row["serving_size"],
		ServingUnit:   strings.ToLower(row["serving_unit"]),
		Calories:      row["calories"],
		Protein:       row["protein"],
		Carbohydrates: row["carbohydrates"],
		Fat:           row["fat"],
		Fiber:         row["fiber"],
		Sugar:         row["sugar"],
		Sodium:        row["sodium"],
	}
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	value = headerPattern.ReplaceAllString(value, "_")
	return strings.Trim(value, "_")
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}
