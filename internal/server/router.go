package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"nutrilog/internal/handlers"
	applog "nutrilog/internal/log"
)

func newRouter(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{"Content-Disposition", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", handlers.Stats)
		r.Get("/units", handlers.Units)

		r.Route("/foods", func(r chi.Router) {
			r.Get("/", handlers.ListFoods)
			r.Post("/", handlers.CreateFood)
			r.Get("/{id}", handlers.ShowFood)
			r.Put("/{id}", handlers.UpdateFood)
			r.Delete("/{id}", handlers.DeleteFood)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", handlers.ListRecipes)
			r.Get("/{id}", handlers.ShowRecipe)
			r.Delete("/{id}", handlers.DeleteRecipe)
		})

		r.Route("/draft", func(r chi.Router) {
			r.Get("/", handlers.ShowDraft)
			r.Post("/", handlers.StartDraft)
			r.Patch("/", handlers.UpdateDraft)
			r.Delete("/", handlers.DiscardDraft)
			r.Post("/ingredients", handlers.AddDraftIngredient)
			r.Delete("/ingredients/{index}", handlers.RemoveDraftIngredient)
			r.Post("/commit", handlers.CommitDraft)
		})

		r.Get("/export", handlers.Export)
		r.Post("/export/archive", handlers.Archive)
		r.Post("/import", handlers.Import)
	})

	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		applog.Debug(context.Background(), "route registered", "method", method, "path", strings.TrimSuffix(route, "/*"))
		return nil
	})
	return r
}
