package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
)

// MsgAlreadySaved is returned by Collection.Add for an id already held
// locally; no request is sent.
const MsgAlreadySaved = "pokemon already saved"

// CollectionAPI is the part of Client the Collection needs.
type CollectionAPI interface {
	List(ctx context.Context, userID string) ([]model.SavedPokemon, error)
	Add(ctx context.Context, userID string, pokemonID int, profile model.Profile) (string, error)
	Remove(ctx context.Context, userID string, pokemonID int) (string, error)
}

// AddResult reports how an add ended.
type AddResult struct {
	AlreadySaved bool
	Message      string
}

// Collection is the signed-in user's saved pokemon ids, newest first.
// It is safe for concurrent use.
type Collection struct {
	api     CollectionAPI
	userID  string
	profile model.Profile

	mu  sync.RWMutex
	ids []int
}

// NewCollection creates an empty collection for userID. An empty userID
// is a signed-out user: every mutation fails and Hydrate clears the list.
func NewCollection(api CollectionAPI, userID string, profile model.Profile) *Collection {
	return &Collection{api: api, userID: userID, profile: profile}
}

// Hydrate replaces the local ids with the server's list.
func (c *Collection) Hydrate(ctx context.Context) error {
	if c.userID == "" {
		c.set(nil)
		return nil
	}

	saved, err := c.api.List(ctx, c.userID)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(saved))
	for _, p := range saved {
		ids = append(ids, p.PokemonID)
	}
	c.set(ids)
	return nil
}

// Add saves pokemonID. An id already held locally short-circuits with
// MsgAlreadySaved.
func (c *Collection) Add(ctx context.Context, pokemonID int) (*AddResult, error) {
	if err := c.requireUser(); err != nil {
		return nil, err
	}
	if c.Contains(pokemonID) {
		return &AddResult{AlreadySaved: true, Message: MsgAlreadySaved}, nil
	}

	msg, err := c.api.Add(ctx, c.userID, pokemonID, c.profile)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !slices.Contains(c.ids, pokemonID) {
		c.ids = append([]int{pokemonID}, c.ids...)
	}
	c.mu.Unlock()
	return &AddResult{Message: msg}, nil
}

// Remove deletes pokemonID on the server and then locally.
func (c *Collection) Remove(ctx context.Context, pokemonID int) (string, error) {
	if err := c.requireUser(); err != nil {
		return "", err
	}

	msg, err := c.api.Remove(ctx, c.userID, pokemonID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.ids = slices.DeleteFunc(c.ids, func(id int) bool { return id == pokemonID })
	c.mu.Unlock()
	return msg, nil
}

// Contains reports whether pokemonID is in the local list.
func (c *Collection) Contains(pokemonID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.ids, pokemonID)
}

// IDs returns a copy of the local list.
func (c *Collection) IDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.ids)
}

func (c *Collection) set(ids []int) {
	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()
}

func (c *Collection) requireUser() error {
	if c.userID == "" {
		return fmt.Errorf("client: %w", apperror.ValidationFailed("userId", "sign in required"))
	}
	return nil
}
