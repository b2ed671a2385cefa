// Package handler contains the HTTP handlers of the Pokédex API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request (query, path params, JSON body, session)
//  2. Call a service
//  3. Write the response through writeJSON / writeError
//
// Business rules live in the services; handlers are glue between HTTP
// and the rest of the app.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/auth"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/modelpath"
	"github.com/sakif/pokedex/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// PokemonHandler serves /api/pokemon: the saved-pokemon collection and,
// for GET without a userId, model-path resolution.
type PokemonHandler struct {
	collection *service.CollectionService
	models     *modelpath.Resolver
	logger     *slog.Logger
}

// NewPokemonHandler creates a PokemonHandler.
func NewPokemonHandler(collection *service.CollectionService, models *modelpath.Resolver, logger *slog.Logger) *PokemonHandler {
	return &PokemonHandler{collection: collection, models: models, logger: logger}
}

// ListResponse is the body of GET /api/pokemon?userId=.
type ListResponse struct {
	Pokemon []model.SavedPokemon `json:"pokemon"`
}

// addRequest is the body of POST /api/pokemon. pokemonId is kept raw so
// both 25 and "25" are accepted and everything else is a clean 400.
type addRequest struct {
	PokemonID json.RawMessage `json:"pokemonId"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Picture   string          `json:"picture"`
}

type removeRequest struct {
	PokemonID json.RawMessage `json:"pokemonId"`
}

// HandleGet dispatches GET /api/pokemon.
//
//	?userId=u1        → the user's collection
//	?id=25 (no userId) → model resolution for species 25
//
// With a session and no query at all, the session user's collection is
// returned.
func (h *PokemonHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("userId") == "" {
		if raw := firstNonEmpty(q.Get("id"), q.Get("pokemonId")); raw != "" {
			h.handleModel(w, r, raw)
			return
		}
	}

	userID, err := h.owner(r, q.Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.collection.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Pokemon: saved})
}

func (h *PokemonHandler) handleModel(w http.ResponseWriter, r *http.Request, raw string) {
	id, err := service.ParsePokemonID(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.models.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Error("model resolution failed", slog.Int("pokemonID", id), slog.String("error", err.Error()))
		writeErrorAs(w, err, "failed to resolve model")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAdd saves a pokemon.
//
// HTTP: POST /api/pokemon?userId=u1
// BODY: {"pokemonId": 25, "email": "...", "name": "...", "picture": "..."}
//
// Saving a pair twice is a 200 whose message says it was already saved.
func (h *PokemonHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			err = apperror.ValidationFailed("body", "request body is required")
		}
		writeError(w, err)
		return
	}

	userID, err := h.owner(r, firstNonEmpty(r.URL.Query().Get("userId"), req.UserID))
	if err != nil {
		writeError(w, err)
		return
	}

	pokemonID, err := service.ParsePokemonID(rawID(req.PokemonID))
	if err != nil {
		writeError(w, err)
		return
	}

	sess, _ := auth.SessionFromContext(r.Context())
	profile := service.ProfileFromSession(model.Profile{
		Email:   req.Email,
		Name:    req.Name,
		Picture: req.Picture,
	}, sess)

	res, err := h.collection.Add(r.Context(), userID, pokemonID, profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Message: res.Message})
}

// HandleRemove deletes a saved pokemon.
//
// HTTP: DELETE /api/pokemon?userId=u1&pokemonId=25
// The id may also come in the body: {"pokemonId": 25}.
func (h *PokemonHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("pokemonId")
	if raw == "" {
		var req removeRequest
		if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, err)
			return
		}
		raw = rawID(req.PokemonID)
	}
	h.remove(w, r, raw)
}

// HandleRemoveByPath deletes a saved pokemon named in the path.
//
// HTTP: DELETE /api/pokemon/{pokemonId}?userId=u1
func (h *PokemonHandler) HandleRemoveByPath(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, chi.URLParam(r, "pokemonId"))
}

func (h *PokemonHandler) remove(w http.ResponseWriter, r *http.Request, rawPokemonID string) {
	userID, err := h.owner(r, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	pokemonID, err := service.ParsePokemonID(rawPokemonID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.collection.Remove(r.Context(), userID, pokemonID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Message: service.MsgRemoved})
}

// owner resolves the target user from the query and the session.
func (h *PokemonHandler) owner(r *http.Request, requested string) (string, error) {
	sess, _ := auth.SessionFromContext(r.Context())
	return service.OwnerID(sess, requested)
}

// decodeBody decodes a JSON body into dst. An empty body is io.EOF so
// callers with optional bodies can tell it apart from malformed JSON.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return apperror.ValidationFailed("body", "invalid request body")
	}
	return nil
}

// rawID turns a JSON number or string into the text ParsePokemonID expects.
func rawID(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
