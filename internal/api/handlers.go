package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/docstore"
	"stealthcompany.com/clinic/internal/export"
)

const healthTimeout = 2 * time.Second

// Handlers serves the clinic endpoints over one set of models
type Handlers struct {
	store    docstore.Store
	models   *dal.Models
	exporter *export.Exporter
}

// NewHandlers creates the endpoint handlers
func NewHandlers(store docstore.Store, models *dal.Models) *Handlers {
	return &Handlers{
		store:    store,
		models:   models,
		exporter: export.NewExporter(models),
	}
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// Index answers with a plain liveness message
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("clinic api is running!"))
}

// Health pings the document store
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "document store unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
