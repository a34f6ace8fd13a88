// Package server — HTTP API маркетплейса поверх gorilla/mux.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Leganyst/service-marketplace/internal/service"
)

// Services — сервисный слой, который обслуживает роутер.
type Services struct {
	Accounts  *service.AccountService
	Profiles  *service.ProfileService
	Discovery *service.DiscoveryService
	Contacts  *service.ContactService
	Ratings   *service.RatingService
	Portfolio *service.PortfolioService
	Favorites *service.FavoritesService
	Catalog   *service.CatalogService
}

type RouterDependencies struct {
	Services       Services
	Health         HealthService
	AllowedOrigins []string
}

// NewRouter собирает маршруты API и оборачивает их логированием и CORS.
func NewRouter(logger *zap.Logger, deps RouterDependencies) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{logger: logger, svc: deps.Services}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler(logger, deps.Health)).Methods(http.MethodGet)

	r.HandleFunc("/api/accounts/register/client", h.registerClient).Methods(http.MethodPost)
	r.HandleFunc("/api/accounts/register/provider", h.registerProvider).Methods(http.MethodPost)
	r.HandleFunc("/api/accounts/me", h.getMe).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/me", h.updateMe).Methods(http.MethodPatch)
	r.HandleFunc("/api/accounts/me", h.deleteMe).Methods(http.MethodDelete)
	r.HandleFunc("/api/accounts/providers", h.listProviders).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/providers/{id}", h.getProvider).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/profile/client", h.updateClientProfile).Methods(http.MethodPatch)
	r.HandleFunc("/api/accounts/profile/provider", h.updateProviderProfile).Methods(http.MethodPatch)
	r.HandleFunc("/api/accounts/favorites", h.listFavorites).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/favorites", h.toggleFavorite).Methods(http.MethodPost)

	r.HandleFunc("/api/services/categories", h.listCategories).Methods(http.MethodGet)
	r.HandleFunc("/api/services", h.listServices).Methods(http.MethodGet)

	r.HandleFunc("/api/contacts", h.createContact).Methods(http.MethodPost)
	r.HandleFunc("/api/contacts/provider", h.listProviderContacts).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts/client", h.listClientContacts).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts/{id}/complete", h.completeContact).Methods(http.MethodPost)

	r.HandleFunc("/api/ratings", h.createRating).Methods(http.MethodPost)
	r.HandleFunc("/api/ratings", h.listRatings).Methods(http.MethodGet)
	r.HandleFunc("/api/ratings/{id}", h.getRating).Methods(http.MethodGet)
	r.HandleFunc("/api/ratings/{id}", h.deleteRating).Methods(http.MethodDelete)

	r.HandleFunc("/api/portfolio", h.listPortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/portfolio", h.addPortfolio).Methods(http.MethodPost)
	r.HandleFunc("/api/portfolio/{id}", h.updatePortfolio).Methods(http.MethodPatch)
	r.HandleFunc("/api/portfolio/{id}", h.deletePortfolio).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, detailNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Método não permitido.")
	})

	handler := loggingMiddleware(logger, r)
	if len(deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(deps.AllowedOrigins)(handler)
	}
	return handler
}

func healthHandler(logger *zap.Logger, health HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{"status": "ok"}
		if health != nil {
			if err := health.Probe(ctx); err != nil {
				logger.Error("health probe failed", zap.Error(err))
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}
		respondJSON(w, status, payload)
	}
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	_, wildcard := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, ok := allowed[origin]
			if origin == "" || (!ok && !wildcard) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+accountHeader)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
