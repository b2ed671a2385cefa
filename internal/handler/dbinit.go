package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/pokedex/internal/repository"
)

// DBHandler exposes the datastore health check.
type DBHandler struct {
	store  repository.Store
	logger *slog.Logger
}

// NewDBHandler creates a DBHandler.
func NewDBHandler(store repository.Store, logger *slog.Logger) *DBHandler {
	return &DBHandler{store: store, logger: logger}
}

// HandleInit applies pending migrations and probes the collection tables.
//
// HTTP: GET or POST /api/db/init
//
// On failure the body carries the driver message and, for known SQLSTATE
// codes, a hint such as "run the migrations".
func (h *DBHandler) HandleInit(w http.ResponseWriter, r *http.Request) {
	// Init finishes with Check.
	if err := h.store.Init(r.Context()); err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("database check passed")
	writeJSON(w, http.StatusOK, MutationResponse{
		Success: true,
		Message: "database connection verified, collection tables are ready",
	})
}

func (h *DBHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("database check failed", slog.String("error", err.Error()))
	writeErrorAs(w, err, "database initialization failed")
}
