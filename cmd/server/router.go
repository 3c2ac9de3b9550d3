package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-tutor/internal/api"
	apiMiddleware "github.com/phrazzld/scry-tutor/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)

	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	cardHandler := api.NewCardHandler(app.cardService, app.logger)
	statsHandler := api.NewStatsHandler(app.statsHandler, app.logger)
	reviewLimit := apiMiddleware.RateLimit(app.config.RateLimit.RequestsPerSecond, app.config.RateLimit.Burst)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(reviewLimit).Post("/reviews", reviewHandler.SubmitReview)

		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Post("/cards", cardHandler.CreateCard)
			r.Get("/cards", cardHandler.ListUserCards)
			r.Delete("/cards/{card_id}", cardHandler.DeleteCard)
			r.Post("/decks", cardHandler.CreateDeck)
			r.Get("/decks", cardHandler.ListDecks)
			r.Delete("/decks/{deck_id}", cardHandler.DeleteDeck)
			r.Post("/import/anki", cardHandler.ImportAnki)
			r.Get("/stats", statsHandler.UserStats)
		})

		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Get("/cards/{id}/reviews", cardHandler.ListReviews)

		r.Get("/decks/{deck_id}/cards", cardHandler.ListDeckCards)
		r.Post("/decks/{deck_id}/import/tsv", cardHandler.ImportTSV)
		r.Get("/decks/{deck_id}/stats", statsHandler.DeckStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
