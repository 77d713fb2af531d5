package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedkhairy/streamta/internal/engine"
	"github.com/mohamedkhairy/streamta/pkg/indicator"
)

// Handler exposes the read-only HTTP surface: catalog, engine stats,
// health, and Prometheus metrics.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates an API handler over the engine.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Router builds the mux router with the standard middleware chain.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	chain := ChainMiddleware(
		RecoveryMiddleware(),
		LoggingMiddleware(),
		CORSMiddleware(),
	)
	r.Use(mux.MiddlewareFunc(chain))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/indicators", h.ListIndicators).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/stats", h.Stats).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// indicatorInfo is the catalog entry shape returned by the API.
type indicatorInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Cost        string `json:"cost"`
	Description string `json:"description"`
}

// ListIndicators handles GET /api/v1/indicators
func (h *Handler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	specs := indicator.Catalog()
	out := make([]indicatorInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, indicatorInfo{
			Name:        s.Name,
			Category:    string(s.Category),
			Cost:        s.Cost.String(),
			Description: s.Description,
		})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"indicators": out,
		"count":      len(out),
	})
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":       h.engine.Symbols(),
		"subscriptions": h.engine.SubscriptionCount(),
	})
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError writes a JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
