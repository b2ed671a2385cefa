package model

import (
	"math"
	"time"
)

// MaxPokemonID is the largest species id the pokemon_id INTEGER columns hold.
const MaxPokemonID = math.MaxInt32

// SavedPokemon is one entry in a user's collection.
// The (UserID, PokemonID) pair is unique.
type SavedPokemon struct {
	UserID    string    `json:"-"`
	PokemonID int       `json:"pokemon_id"`
	AddedAt   time.Time `json:"added_at"`
}
