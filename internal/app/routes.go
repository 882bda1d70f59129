package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/translation-arena/backend/internal/auth"
	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/exercises"
	"github.com/translation-arena/backend/internal/gamification"
	"github.com/translation-arena/backend/internal/middleware"
)

// Router builds the HTTP API, wrapped in CORS.
func (a *App) Router() http.Handler {
	secret := []byte(a.Config.Auth.JWTSecret)

	authHandler := auth.NewHandler(a.DB, secret, a.Config.Auth.TokenTTL)
	evalHandler := evaluation.NewHandler(a.Evaluations)
	gameHandler := gamification.NewHandler(a.Game)
	exHandler := exercises.NewHandler(a.Exercises)

	r := mux.NewRouter()
	r.Use(a.Metrics.Middleware)
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/exercises", exHandler.ListExercises).Methods("GET")
	api.HandleFunc("/exercises/random", exHandler.RandomExercise).Methods("GET")
	api.HandleFunc("/exercises/export", exHandler.ExportExercises).Methods("GET")
	api.HandleFunc("/exercises/{id:[0-9]+}", exHandler.GetExercise).Methods("GET")
	api.Handle("/leaderboard", middleware.OptionalAuth(secret)(http.HandlerFunc(gameHandler.GetLeaderboard))).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(secret))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/evaluations", evalHandler.Evaluate).Methods("POST")
	protected.HandleFunc("/evaluations", evalHandler.ListEvaluations).Methods("GET")
	protected.HandleFunc("/evaluations/{id}", evalHandler.GetEvaluation).Methods("GET")

	protected.HandleFunc("/sessions", gameHandler.StartSession).Methods("POST")
	protected.HandleFunc("/sessions/current", gameHandler.GetSession).Methods("GET")
	protected.HandleFunc("/sessions/current", gameHandler.EndSession).Methods("DELETE")
	protected.HandleFunc("/challenge/start", gameHandler.StartChallenge).Methods("POST")
	protected.HandleFunc("/challenge", gameHandler.GetChallenge).Methods("GET")
	protected.HandleFunc("/awards", gameHandler.GetAwards).Methods("GET")

	protected.HandleFunc("/exercises/import", exHandler.ImportExercises).Methods("POST")

	r.HandleFunc("/health", a.health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(a.Gatherer, promhttp.HandlerOpts{})).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   a.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	})
	return c.Handler(r)
}

// health reports liveness plus the readiness of every scorer.
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := a.DB.PingContext(r.Context()); err != nil {
		status = "degraded"
	}

	scorers := make(map[string]string)
	for kind, err := range a.Registry.Readiness() {
		if err != nil {
			scorers[string(kind)] = err.Error()
		} else {
			scorers[string(kind)] = "ready"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": status, "scorers": scorers})
}
