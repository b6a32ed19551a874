package catalog

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"nutrilog/models"
)

var errBackend = errors.New("backend unavailable")

// memStore is an in-memory Store without transactions, so commits go through
// the compensating saga. Methods named in fail return that error, those in
// once only on their next call. A failing InsertIngredients still writes the
// first partialRows rows.
type memStore struct {
	mu          sync.Mutex
	nextID      uint
	foods       map[uint]models.Food
	recipes     map[uint]models.Recipe
	ingredients map[uint][]models.Ingredient
	fail        map[string]error
	once        map[string]error
	partialRows int
	calls       []string
}

func newMemStore() *memStore {
	return &memStore{
		foods:       map[uint]models.Food{},
		recipes:     map[uint]models.Recipe{},
		ingredients: map[uint][]models.Ingredient{},
		fail:        map[string]error{},
		once:        map[string]error{},
	}
}

func (m *memStore) failOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = err
}

func (m *memStore) failOnceOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.once[method] = err
}

func (m *memStore) enter(method string) error {
	m.calls = append(m.calls, method)
	if err, ok := m.once[method]; ok {
		delete(m.once, method)
		return err
	}
	return m.fail[method]
}

func (m *memStore) called(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.calls, method)
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListFoods(ctx context.Context) ([]models.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListFoods"); err != nil {
		return nil, err
	}
	out := make([]models.Food, 0, len(m.foods))
	for _, f := range m.foods {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b models.Food) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memStore) InsertFood(ctx context.Context, food *models.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertFood"); err != nil {
		return err
	}
	food.ID = m.id()
	m.foods[food.ID] = *food
	return nil
}

func (m *memStore) UpdateFood(ctx context.Context, id uint, food *models.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateFood"); err != nil {
		return err
	}
	if _, ok := m.foods[id]; !ok {
		return &NotFoundError{Kind: "food", ID: id}
	}
	food.ID = id
	m.foods[id] = *food
	return nil
}

func (m *memStore) DeleteFood(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteFood"); err != nil {
		return err
	}
	if _, ok := m.foods[id]; !ok {
		return &NotFoundError{Kind: "food", ID: id}
	}
	delete(m.foods, id)
	return nil
}

func (m *memStore) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListRecipes"); err != nil {
		return nil, err
	}
	out := make([]models.Recipe, 0, len(m.recipes))
	for id, r := range m.recipes {
		r.Ingredients = slices.Clone(m.ingredients[id])
		if r.Ingredients == nil {
			r.Ingredients = []models.Ingredient{}
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.Recipe) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memStore) InsertRecipe(ctx context.Context, recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertRecipe"); err != nil {
		return err
	}
	recipe.ID = m.id()
	stored := *recipe
	stored.Ingredients = nil
	m.recipes[recipe.ID] = stored
	return nil
}

func (m *memStore) UpdateRecipe(ctx context.Context, id uint, recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateRecipe"); err != nil {
		return err
	}
	if _, ok := m.recipes[id]; !ok {
		return &NotFoundError{Kind: "recipe", ID: id}
	}
	stored := *recipe
	stored.ID = id
	stored.Ingredients = nil
	m.recipes[id] = stored
	return nil
}

func (m *memStore) DeleteRecipe(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteRecipe"); err != nil {
		return err
	}
	if _, ok := m.recipes[id]; !ok {
		return &NotFoundError{Kind: "recipe", ID: id}
	}
	delete(m.recipes, id)
	delete(m.ingredients, id)
	return nil
}

func (m *memStore) InsertIngredients(ctx context.Context, recipeID uint, ingredients []models.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertIngredients"); err != nil {
		n := min(m.partialRows, len(ingredients))
		m.ingredients[recipeID] = append(m.ingredients[recipeID], ingredients[:n]...)
		return err
	}
	m.ingredients[recipeID] = append(m.ingredients[recipeID], ingredients...)
	return nil
}

func (m *memStore) DeleteIngredients(ctx context.Context, recipeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteIngredients"); err != nil {
		return err
	}
	delete(m.ingredients, recipeID)
	return nil
}

func (m *memStore) ReplaceAll(ctx context.Context, foods []models.Food, recipes []models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReplaceAll"); err != nil {
		return err
	}
	m.foods = map[uint]models.Food{}
	m.recipes = map[uint]models.Recipe{}
	m.ingredients = map[uint][]models.Ingredient{}
	for i := range foods {
		if foods[i].ID == 0 {
			foods[i].ID = m.id()
		}
		m.nextID = max(m.nextID, foods[i].ID)
		m.foods[foods[i].ID] = foods[i]
	}
	for i := range recipes {
		if recipes[i].ID == 0 {
			recipes[i].ID = m.id()
		}
		m.nextID = max(m.nextID, recipes[i].ID)
		stored := recipes[i]
		stored.Ingredients = nil
		m.recipes[recipes[i].ID] = stored
		m.ingredients[recipes[i].ID] = slices.Clone(recipes[i].Ingredients)
	}
	return nil
}
