// Package client talks to the Pokédex REST API and keeps the signed-in
// user's collection in memory.
//
//	Client     → one method per API route, JSON in and out
//	Collection → the "my pokemon" ids, hydrated from the API and kept in
//	             step with every add and remove
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/asset"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/pokeapi"
)

// DefaultBaseURL is the API root of a locally running server.
const DefaultBaseURL = "http://localhost:8080/api"

// APIError is a non-2xx reply. It unwraps to the apperror sentinel that
// matches the status, so callers can use errors.Is(err, apperror.ErrNotFound).
type APIError struct {
	Status  int
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return apperror.ErrValidation
	case http.StatusForbidden:
		return apperror.ErrForbidden
	case http.StatusNotFound:
		return apperror.ErrNotFound
	case http.StatusConflict:
		return apperror.ErrConflict
	case http.StatusBadGateway:
		return apperror.ErrUpstream
	default:
		return apperror.ErrStorage
	}
}

// Client is a REST client for the API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a Bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Pokemon []model.SavedPokemon `json:"pokemon"`
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type addRequest struct {
	PokemonID int    `json:"pokemonId"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

// List returns the user's saved pokemon, most recent first.
func (c *Client) List(ctx context.Context, userID string) ([]model.SavedPokemon, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/pokemon", userQuery(userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("client: listing pokemon: %w", err)
	}
	if resp.Pokemon == nil {
		resp.Pokemon = []model.SavedPokemon{}
	}
	return resp.Pokemon, nil
}

// Add saves pokemonID and returns the server's message.
func (c *Client) Add(ctx context.Context, userID string, pokemonID int, profile model.Profile) (string, error) {
	body := addRequest{
		PokemonID: pokemonID,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
	}
	var resp mutationResponse
	if err := c.do(ctx, http.MethodPost, "/pokemon", userQuery(userID), body, &resp); err != nil {
		return "", fmt.Errorf("client: adding pokemon %d: %w", pokemonID, err)
	}
	return resp.Message, nil
}

// Remove deletes pokemonID from the collection.
func (c *Client) Remove(ctx context.Context, userID string, pokemonID int) (string, error) {
	q := userQuery(userID)
	q.Set("pokemonId", strconv.Itoa(pokemonID))
	var resp mutationResponse
	if err := c.do(ctx, http.MethodDelete, "/pokemon", q, nil, &resp); err != nil {
		return "", fmt.Errorf("client: removing pokemon %d: %w", pokemonID, err)
	}
	return resp.Message, nil
}

// Model resolves the model file for a species.
func (c *Client) Model(ctx context.Context, pokemonID int) (*model.ModelResolution, error) {
	q := url.Values{"id": {strconv.Itoa(pokemonID)}}
	var res model.ModelResolution
	if err := c.do(ctx, http.MethodGet, "/pokemon", q, nil, &res); err != nil {
		return nil, fmt.Errorf("client: resolving model %d: %w", pokemonID, err)
	}
	return &res, nil
}

// Manifest returns the render manifest for a species.
func (c *Client) Manifest(ctx context.Context, pokemonID int) (*asset.Manifest, error) {
	var m asset.Manifest
	if err := c.do(ctx, http.MethodGet, "/pokemon/"+strconv.Itoa(pokemonID)+"/asset", nil, nil, &m); err != nil {
		return nil, fmt.Errorf("client: fetching manifest %d: %w", pokemonID, err)
	}
	return &m, nil
}

// Species returns species details.
func (c *Client) Species(ctx context.Context, id int) (*pokeapi.Species, error) {
	var s pokeapi.Species
	if err := c.do(ctx, http.MethodGet, "/species/"+strconv.Itoa(id), nil, nil, &s); err != nil {
		return nil, fmt.Errorf("client: fetching species %d: %w", id, err)
	}
	return &s, nil
}

func userQuery(userID string) url.Values {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	return q
}

// do sends one request. A non-2xx reply becomes an *APIError built from
// the {error, details, hint} body when the server sent one.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Details string `json:"details"`
			Hint    string `json:"hint"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb) == nil {
			apiErr.Message, apiErr.Details, apiErr.Hint = eb.Error, eb.Details, eb.Hint
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
