package api

import (
	"encoding/json"
	"net/http"

	"planrec/internal"
	"planrec/internal/errors"
	"planrec/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewOpsRouter builds the operations listener: pprof under /debug,
// Prometheus metrics, health, and snapshot reload.
func NewOpsRouter(snapshots ports.SnapshotReader, reloader SnapshotReloader, logger *internal.Logger) http.Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("Ops")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, health(snapshots.Current()))
	})

	r.Post("/reload", func(w http.ResponseWriter, req *http.Request) {
		snap, err := reloader.Reload(req.Context())
		if err != nil {
			logger.Error("reload: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": err.Error(),
				"code":  errors.GetCode(err),
			})
			return
		}
		logger.Info("reloaded %s", snap.Source())
		writeJSON(w, http.StatusOK, health(snap))
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
