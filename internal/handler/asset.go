package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/pokedex/internal/asset"
	"github.com/sakif/pokedex/internal/service"
)

// AssetHandler serves render manifests for species models.
type AssetHandler struct {
	builder *asset.Builder
	logger  *slog.Logger
}

// NewAssetHandler creates an AssetHandler.
func NewAssetHandler(builder *asset.Builder, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{builder: builder, logger: logger}
}

// HandleManifest returns how to display a species' model.
//
// HTTP: GET /api/pokemon/{pokemonId}/asset
//
// A model that cannot be loaded is still a 200: the manifest says
// placeholder=true and describes the stand-in sphere.
func (h *AssetHandler) HandleManifest(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParsePokemonID(chi.URLParam(r, "pokemonId"))
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := h.builder.Build(r.Context(), id)
	if err != nil {
		h.logger.Error("asset manifest failed", slog.Int("pokemonID", id), slog.String("error", err.Error()))
		writeErrorAs(w, err, "failed to build asset manifest")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
