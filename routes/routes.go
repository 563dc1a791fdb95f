package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/francosolari/nba-props-board/handlers"
	"github.com/francosolari/nba-props-board/metrics"
	"github.com/francosolari/nba-props-board/middleware"
)

// SetupRoutes mounts every endpoint on the router. The leaderboard
// surface is public; answer reads and writes require a bearer token,
// which is forwarded to the game backend untouched.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	allowedOrigins []string,
	leaderboardHandler *handlers.LeaderboardHandler,
	seasonHandler *handlers.SeasonHandler,
	answersHandler *handlers.AnswersHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(metrics.Instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1/seasons", func(r chi.Router) {
		r.Get("/", seasonHandler.GetAllSeasons)
		r.Get("/current", seasonHandler.GetCurrentSeason)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Get("/participated", seasonHandler.GetParticipatedSeasons)
		})

		r.Route("/{slug}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.Optional)
				r.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
				r.Post("/leaderboard/simulate", leaderboardHandler.SimulateLeaderboard)
				r.Post("/leaderboard/refresh", leaderboardHandler.RefreshLeaderboard)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Get("/answers", answersHandler.GetAnswers)
				r.Put("/answers", answersHandler.SaveAnswers)
			})
		})
	})

	// Sockets join one season room for their lifetime.
	router.Get("/ws/seasons/{slug}", webSocketHandler.ServeWs)
}
