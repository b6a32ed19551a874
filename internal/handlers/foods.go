package handlers

import (
	"net/http"

	"nutrilog/internal/catalog"
	applog "nutrilog/internal/log"
	"nutrilog/models"
)

type foodRequest struct {
	Name          flexText `json:"name"`
	ServingSize   flexText `json:"serving_size"`
	ServingUnit   flexText `json:"serving_unit"`
	Calories      flexText `json:"calories"`
	Protein       flexText `json:"protein"`
	Carbohydrates flexText `json:"carbohydrates"`
	Fat           flexText `json:"fat"`
	Fiber         flexText `json:"fiber"`
	Sugar         flexText `json:"sugar"`
	Sodium        flexText `json:"sodium"`
}

func (req foodRequest) draft() catalog.FoodDraft {
	return catalog.FoodDraft{
		Name:          string(req.Name),
		ServingSize:   string(req.ServingSize),
		ServingUnit:   string(req.ServingUnit),
		Calories:      string(req.Calories),
		Protein:       string(req.Protein),
		Carbohydrates: string(req.Carbohydrates),
		Fat:           string(req.Fat),
		Fiber:         string(req.Fiber),
		Sugar:         string(req.Sugar),
		Sodium:        string(req.Sodium),
	}
}

// ListFoods returns the catalog filtered by ?q= and ordered by ?sort=.
func ListFoods(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	key, err := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeServiceError(w, r, err, "unable to list foods")
		return
	}
	foods := catalog.SortFoods(catalog.FilterFoods(service.Foods(), r.URL.Query().Get("q")), key)
	if foods == nil {
		foods = []models.Food{}
	}
	writeJSON(w, http.StatusOK, foods)
}

func CreateFood(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	var payload foodRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(r.Context(), "invalid food payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	food, err := service.AddFood(r.Context(), payload.draft())
	if err != nil {
		writeServiceError(w, r, err, "unable to save food")
		return
	}
	writeJSON(w, http.StatusCreated, food)
}

func ShowFood(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	food, found := service.Food(id)
	if !found {
		writeServiceError(w, r, &catalog.NotFoundError{Kind: "food", ID: id}, "unable to load food")
		return
	}
	writeJSON(w, http.StatusOK, food)
}

func UpdateFood(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var payload foodRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(r.Context(), "invalid food payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	food, err := service.UpdateFood(r.Context(), id, payload.draft())
	if err != nil {
		writeServiceError(w, r, err, "unable to update food")
		return
	}
	writeJSON(w, http.StatusOK, food)
}

func DeleteFood(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := service.RemoveFood(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "unable to delete food")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
