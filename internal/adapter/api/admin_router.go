package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fisioflow/mentorship-api/internal/usecase"
)

// NewAdminRouter creates the HTTP router for the operational endpoints served
// on the admin port: Prometheus metrics and the tier catalog dump operators
// use to confirm which limits a deployment is actually running with.
func NewAdminRouter(catalog *usecase.Catalog) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /admin/catalog", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(catalog.Comparison())
	})

	return mux
}
