package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"nutrilog/internal/catalog"
	applog "nutrilog/internal/log"
	"nutrilog/models"
)

const sessionDraftKey = "recipe:draft"

type draftResponse struct {
	catalog.Draft
	Totals     *models.Nutrients `json:"totals,omitempty"`
	PerServing *models.Nutrients `json:"per_serving,omitempty"`
}

type startDraftRequest struct {
	RecipeID uint `json:"recipe_id"`
}

type updateDraftRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	TotalServings *flexText `json:"total_servings"`
}

type addIngredientRequest struct {
	FoodID   uint     `json:"food_id"`
	Quantity flexText `json:"quantity"`
}

func loadDraft(ctx context.Context) (catalog.Draft, bool) {
	if sessionManager == nil {
		return catalog.Draft{}, false
	}
	draft, ok := sessionManager.Get(ctx, sessionDraftKey).(catalog.Draft)
	return draft, ok
}

func saveDraft(ctx context.Context, draft catalog.Draft) {
	sessionManager.Put(ctx, sessionDraftKey, draft)
}

func projectDraft(draft catalog.Draft) draftResponse {
	if draft.Ingredients == nil {
		draft.Ingredients = []models.Ingredient{}
	}
	resp := draftResponse{Draft: draft}
	totals, perServing, err := draft.Preview()
	if err == nil {
		resp.Totals, resp.PerServing = &totals, &perServing
	} else if len(draft.Ingredients) > 0 && draft.TotalServings < 1 {
		resp.Totals = &totals
	}
	return resp
}

func requireSession(w http.ResponseWriter, r *http.Request) bool {
	if sessionManager == nil {
		applog.Debug(r.Context(), "draft request without session manager")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

// currentDraft loads the session draft or replies 404 when no recipe is being built.
func currentDraft(w http.ResponseWriter, r *http.Request) (catalog.Draft, bool) {
	if !requireSession(w, r) {
		return catalog.Draft{}, false
	}
	draft, ok := loadDraft(r.Context())
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no recipe in progress")
		return catalog.Draft{}, false
	}
	return draft, true
}

func ShowDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := currentDraft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectDraft(draft))
}

// StartDraft begins a new recipe, or an edit of recipe_id, replacing any
// draft already in the session.
func StartDraft(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) || !requireSession(w, r) {
		return
	}
	var payload startDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			applog.Debug(r.Context(), "invalid draft payload", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	draft := catalog.NewDraft()
	if payload.RecipeID != 0 {
		recipe, found := service.Recipe(payload.RecipeID)
		if !found {
			writeServiceError(w, r, &catalog.NotFoundError{Kind: "recipe", ID: payload.RecipeID}, "unable to start draft")
			return
		}
		draft = catalog.DraftFrom(recipe)
	}
	saveDraft(r.Context(), draft)
	applog.Debug(r.Context(), "draft started", "editing", draft.EditingID)
	writeJSON(w, http.StatusCreated, projectDraft(draft))
}

func UpdateDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := currentDraft(w, r)
	if !ok {
		return
	}
	var payload updateDraftRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(r.Context(), "invalid draft payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Name != nil {
		draft = draft.WithName(*payload.Name)
	}
	if payload.Description != nil {
		draft = draft.WithDescription(*payload.Description)
	}
	if payload.TotalServings != nil {
		servings, err := strconv.Atoi(strings.TrimSpace(string(*payload.TotalServings)))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "total_servings must be a whole number")
			return
		}
		draft = draft.WithServings(servings)
	}
	saveDraft(r.Context(), draft)
	writeJSON(w, http.StatusOK, projectDraft(draft))
}

func DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if !requireSession(w, r) {
		return
	}
	sessionManager.Remove(r.Context(), sessionDraftKey)
	w.WriteHeader(http.StatusNoContent)
}

// AddDraftIngredient appends food_id at quantity. An unknown food or a
// quantity that is not positive leaves the draft unchanged.
func AddDraftIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	draft, ok := currentDraft(w, r)
	if !ok {
		return
	}
	var payload addIngredientRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(r.Context(), "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	var selected *models.Food
	if food, found := service.Food(payload.FoodID); found {
		selected = &food
	}
	draft = draft.AddIngredient(selected, string(payload.Quantity))
	saveDraft(r.Context(), draft)
	writeJSON(w, http.StatusOK, projectDraft(draft))
}

func RemoveDraftIngredient(w http.ResponseWriter, r *http.Request) {
	draft, ok := currentDraft(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "ingredient index must be a whole number")
		return
	}
	draft = draft.RemoveIngredient(index)
	saveDraft(r.Context(), draft)
	writeJSON(w, http.StatusOK, projectDraft(draft))
}

// CommitDraft saves the session draft as a recipe and clears it. A draft that
// fails validation stays in the session.
func CommitDraft(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	draft, ok := currentDraft(w, r)
	if !ok {
		return
	}
	recipe, err := service.Save(r.Context(), draft)
	if err != nil {
		writeServiceError(w, r, err, "unable to save recipe")
		return
	}
	sessionManager.Remove(r.Context(), sessionDraftKey)

	status := http.StatusCreated
	if draft.Editing() {
		status = http.StatusOK
	}
	writeJSON(w, status, projectRecipe(recipe))
}
