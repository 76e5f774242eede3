package api

import (
	"github.com/gorilla/mux"

	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/db"
	"github.com/physai/textbook-backend/internal/rag"
	"github.com/physai/textbook-backend/internal/repository/sqlite"
	"github.com/physai/textbook-backend/pkg/ollama"
	"github.com/physai/textbook-backend/pkg/retrieval"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB, retriever *retrieval.Client, generator *ollama.Client) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db, logger)

	// Auth components
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	ledger := auth.NewSessionLedger(repo, tokens, cfg.RefreshTokenTTL, cfg.MaxSessions, logger)
	gateway := auth.NewGateway(repo, ledger, logger)

	orchestrator, err := rag.NewOrchestrator(tokens, repo, repo, retriever, generator, cfg.Query, logger)
	if err != nil {
		return nil, err
	}

	// Create handlers
	systemHandler := NewSystemHandler(retriever, generator)
	authHandler := NewAuthHandler(gateway)
	profileHandler := NewProfileHandler(repo)
	queryHandler := NewQueryHandler(orchestrator, tokens)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// Credential endpoints sit behind a per-address rate limit
	open := r.PathPrefix("/v1/auth").Subrouter()
	open.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	open.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	open.HandleFunc("/signin", authHandler.Signin).Methods("POST")
	open.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")

	// Query is open; the handler rejects present-but-invalid tokens itself
	r.HandleFunc("/v1/query", queryHandler.Ask).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(AuthMiddleware(tokens))

	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")
	apiV1.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	apiV1.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")

	return r, nil
}
