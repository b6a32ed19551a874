package catalog

import (
	"context"
	"encoding/json"
	"time"

	applog "nutrilog/internal/log"
	"nutrilog/models"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = "1.0"

const exportDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is the backup form of both catalogs.
type Snapshot struct {
	Foods      []models.Food   `json:"foods"`
	Recipes    []models.Recipe `json:"recipes"`
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
}

// Export captures the current catalogs.
func (s *Service) Export() Snapshot {
	foods := s.Foods()
	if foods == nil {
		foods = []models.Food{}
	}
	recipes := s.Recipes()
	for i := range recipes {
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []models.Ingredient{}
		}
	}
	return Snapshot{
		Foods:      foods,
		Recipes:    recipes,
		ExportDate: s.now().UTC().Format(exportDateLayout),
		Version:    SnapshotVersion,
	}
}

// SnapshotFileName is the download name for a snapshot taken at t. The date
// is the UTC one, matching exportDate.
func SnapshotFileName(t time.Time) string {
	return "nutrition-database-" + t.UTC().Format(time.DateOnly) + ".json"
}

// FileName names snap after its own export date. A snapshot without a
// readable date is named for the current day.
func (snap Snapshot) FileName() string {
	at, err := time.Parse(exportDateLayout, snap.ExportDate)
	if err != nil {
		at = time.Now()
	}
	return SnapshotFileName(at)
}

// EncodeSnapshot renders snap as indented JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.Foods == nil {
		snap.Foods = []models.Food{}
	}
	if snap.Recipes == nil {
		snap.Recipes = []models.Recipe{}
	}
	return json.MarshalIndent(snap, "", "  ")
}

// DecodeSnapshot parses payload. Only the presence of the foods and recipes
// collections is checked; a null collection counts as missing.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var raw struct {
		Foods      *[]models.Food   `json:"foods"`
		Recipes    *[]models.Recipe `json:"recipes"`
		ExportDate string           `json:"exportDate"`
		Version    string           `json:"version"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Snapshot{}, &FormatError{Reason: "payload is not a snapshot document", Err: err}
	}
	if raw.Foods == nil {
		return Snapshot{}, &FormatError{Reason: "missing foods collection"}
	}
	if raw.Recipes == nil {
		return Snapshot{}, &FormatError{Reason: "missing recipes collection"}
	}
	snap := Snapshot{
		Foods:      *raw.Foods,
		Recipes:    *raw.Recipes,
		ExportDate: raw.ExportDate,
		Version:    raw.Version,
	}
	for i := range snap.Recipes {
		if snap.Recipes[i].Ingredients == nil {
			snap.Recipes[i].Ingredients = []models.Ingredient{}
		}
	}
	return snap, nil
}

// Import replaces both catalogs with the snapshot in payload. Storage is
// rewritten first; memory is left alone if either step fails.
func (s *Service) Import(ctx context.Context, payload []byte) error {
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		applog.Error(ctx, "import rejected", "error", err)
		return err
	}
	return s.Restore(ctx, snap)
}

// Restore writes snap through to storage and then swaps it into memory.
func (s *Service) Restore(ctx context.Context, snap Snapshot) error {
	foods := snap.Foods
	recipes := snap.Recipes
	if err := s.call(ctx, "replace catalog", func(ctx context.Context) error {
		return s.store.ReplaceAll(ctx, foods, recipes)
	}); err != nil {
		applog.Error(ctx, "import failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.setFoodsLocked(foods)
	s.recipes = recipes
	s.mu.Unlock()

	applog.Info(ctx, "catalog imported", "foods", len(foods), "recipes", len(recipes), "version", snap.Version)
	return nil
}
