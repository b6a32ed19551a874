package handlers

import (
	"net/http"

	"nutrilog/internal/catalog"
	"nutrilog/internal/nutrition"
	"nutrilog/models"
)

type recipeResponse struct {
	models.Recipe
	PerServing models.Nutrients `json:"per_serving"`
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	perServing, err := nutrition.PerServing(recipe.Nutrients, recipe.TotalServings)
	if err != nil {
		// Imported recipes are not re-validated; show totals as one serving.
		perServing = recipe.Nutrients
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = []models.Ingredient{}
	}
	return recipeResponse{Recipe: recipe, PerServing: perServing}
}

// ListRecipes returns recipes filtered by ?q= and ordered by ?sort=, each with
// its per-serving values.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	key, err := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeServiceError(w, r, err, "unable to list recipes")
		return
	}
	recipes := catalog.SortRecipes(catalog.FilterRecipes(service.Recipes(), r.URL.Query().Get("q")), key)
	responses := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, projectRecipe(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func ShowRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	recipe, found := service.Recipe(id)
	if !found {
		writeServiceError(w, r, &catalog.NotFoundError{Kind: "recipe", ID: id}, "unable to load recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(recipe))
}

func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := service.RemoveRecipe(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "unable to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
