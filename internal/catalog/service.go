// Package catalog keeps the food and recipe catalogs in memory, in step with a
// persistent Store, and provides the draft, query and snapshot operations on top.
package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	applog "nutrilog/internal/log"
	"nutrilog/models"
)

// DefaultTimeout bounds a single storage call when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Options tune a Service.
type Options struct {
	// Timeout bounds every storage call. Zero selects DefaultTimeout; a
	// negative value disables the bound.
	Timeout time.Duration
	// Now supplies the export timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Stats counts catalog entries.
type Stats struct {
	Foods   int `json:"foods"`
	Recipes int `json:"recipes"`
}

// Service owns the in-memory catalogs. Mutations are applied to memory only
// after the store confirms them.
type Service struct {
	store   Store
	timeout time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	foods     []models.Food
	foodIndex map[uint]int
	recipes   []models.Recipe
}

// New returns a Service backed by store. Call Load to populate it.
func New(store Store, opts Options) *Service {
	if store == nil {
		panic("catalog: nil store")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		timeout:   timeout,
		now:       now,
		foodIndex: map[uint]int{},
	}
}

// Load replaces the in-memory catalogs with the store's contents.
func (s *Service) Load(ctx context.Context) error {
	var (
		foods   []models.Food
		recipes []models.Recipe
	)
	err := s.call(ctx, "load", func(ctx context.Context) error {
		var err error
		if foods, err = s.store.ListFoods(ctx); err != nil {
			return err
		}
		recipes, err = s.store.ListRecipes(ctx)
		return err
	})
	if err != nil {
		applog.Error(ctx, "catalog load failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.setFoodsLocked(foods)
	s.recipes = recipes
	s.mu.Unlock()

	applog.Debug(ctx, "catalog loaded", "foods", len(foods), "recipes", len(recipes))
	return nil
}

// Foods returns a copy of the food catalog in its current order.
func (s *Service) Foods() []models.Food {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.foods)
}

// Food looks up a food by id.
func (s *Service) Food(id uint) (models.Food, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.foodIndex[id]
	if !ok {
		return models.Food{}, false
	}
	return s.foods[idx], true
}

// Recipes returns a deep copy of the recipe catalog.
func (s *Service) Recipes() []models.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Recipe, len(s.recipes))
	for i, r := range s.recipes {
		out[i] = cloneRecipe(r)
	}
	return out
}

// Recipe looks up a recipe by id.
func (s *Service) Recipe(id uint) (models.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.recipeIndexLocked(id)
	if idx < 0 {
		return models.Recipe{}, false
	}
	return cloneRecipe(s.recipes[idx]), true
}

// Stats reports how many foods and recipes are loaded.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Foods: len(s.foods), Recipes: len(s.recipes)}
}

// call runs fn under the storage timeout. Store failures come back as
// *StorageError; *NotFoundError passes through untouched.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	var (
		nf *NotFoundError
		se *StorageError
	)
	if errors.As(err, &nf) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (s *Service) setFoodsLocked(foods []models.Food) {
	s.foods = foods
	s.foodIndex = make(map[uint]int, len(foods))
	for i, f := range foods {
		s.foodIndex[f.ID] = i
	}
}

func (s *Service) recipeIndexLocked(id uint) int {
	return slices.IndexFunc(s.recipes, func(r models.Recipe) bool { return r.ID == id })
}

func cloneRecipe(r models.Recipe) models.Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	return r
}
