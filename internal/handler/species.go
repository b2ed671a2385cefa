package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/pokeapi"
)

// SpeciesHandler proxies species details from PokéAPI.
type SpeciesHandler struct {
	client *pokeapi.Client
}

// NewSpeciesHandler creates a SpeciesHandler.
func NewSpeciesHandler(client *pokeapi.Client) *SpeciesHandler {
	return &SpeciesHandler{client: client}
}

// HandleGet returns merged details for one species.
//
// HTTP: GET /api/species/{id}
// 400 for ids outside 1..1025, 502 when PokéAPI fails.
func (h *SpeciesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "species id must be a number"))
		return
	}

	s, err := h.client.Species(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
