package handlers

import (
	"net/http"
	"time"

	"nutrilog/internal/catalog"
	applog "nutrilog/internal/log"
)

type healthResponse struct {
	Status  string         `json:"status"`
	Time    time.Time      `json:"time"`
	Catalog *catalog.Stats `json:"catalog,omitempty"`
}

// Health is a readiness handler for infrastructure probes. It reports the
// loaded catalog size once the service is configured.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
	}
	if service != nil {
		stats := service.Stats()
		resp.Catalog = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats reports how many foods and recipes the catalog holds.
func Stats(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, service.Stats())
}

// Units lists the serving units a food may use.
func Units(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"units": catalog.ServingUnits()})
}
