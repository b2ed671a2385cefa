// Package service holds the business rules between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, applies the rules, logs
//	Repository      → reads/writes the database
//
// Services accept plain values (never *http.Request) so the CLI tools can
// call them too, and they return apperror values that the handler maps to
// status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

// Messages returned with a successful mutation.
const (
	MsgAdded        = "pokemon added"
	MsgAlreadySaved = "pokemon already saved"
	MsgRemoved      = "pokemon removed"
)

// AddResult reports how an add ended. A duplicate is a success.
type AddResult struct {
	AlreadySaved bool
	Message      string
}

// CollectionService manages users' saved-pokemon collections.
type CollectionService struct {
	repo   repository.CollectionRepository
	logger *slog.Logger
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(repo repository.CollectionRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{repo: repo, logger: logger}
}

// ParsePokemonID converts a raw request value into a species id.
// Anything outside 1..model.MaxPokemonID is a validation error.
func ParsePokemonID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperror.ValidationFailed("pokemonId", "a valid pokemonId is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed("pokemonId", "a valid pokemonId is required")
	}
	if err := validatePokemonID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func validateUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperror.ValidationFailed("userId", "userId is required")
	}
	return userID, nil
}

func validatePokemonID(id int) error {
	if id <= 0 || id > model.MaxPokemonID {
		return apperror.ValidationFailed("pokemonId", "a valid pokemonId is required")
	}
	return nil
}

// List returns the user's collection, most recently saved first.
func (s *CollectionService) List(ctx context.Context, userID string) ([]model.SavedPokemon, error) {
	userID, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.ListSaved(ctx, userID)
	if err != nil {
		s.logStorageError("failed to list pokemon", err, slog.String("userID", userID))
		return nil, fmt.Errorf("listing pokemon: %w", err)
	}
	return saved, nil
}

// Add saves pokemonID for userID, creating or refreshing the user from
// profile. Saving a pair twice is not an error: the result says
// AlreadySaved and nothing new is stored.
func (s *CollectionService) Add(ctx context.Context, userID string, pokemonID int, profile model.Profile) (*AddResult, error) {
	userID, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	if err := validatePokemonID(pokemonID); err != nil {
		return nil, err
	}

	profile = model.Profile{
		Email:   strings.TrimSpace(profile.Email),
		Name:    strings.TrimSpace(profile.Name),
		Picture: strings.TrimSpace(profile.Picture),
	}

	err = s.repo.AddSaved(ctx, userID, pokemonID, profile)
	switch {
	case err == nil:
		s.logger.Info("pokemon added",
			slog.String("userID", userID),
			slog.Int("pokemonID", pokemonID),
		)
		return &AddResult{Message: MsgAdded}, nil

	case errors.Is(err, apperror.ErrConflict):
		s.logger.Info("pokemon already saved",
			slog.String("userID", userID),
			slog.Int("pokemonID", pokemonID),
		)
		return &AddResult{AlreadySaved: true, Message: MsgAlreadySaved}, nil

	case errors.Is(err, apperror.ErrValidation):
		return nil, err

	default:
		s.logStorageError("failed to add pokemon", err,
			slog.String("userID", userID),
			slog.Int("pokemonID", pokemonID),
		)
		return nil, fmt.Errorf("adding pokemon: %w", err)
	}
}

// Remove deletes pokemonID from the user's collection.
// A pair that is not saved is apperror.ErrNotFound.
func (s *CollectionService) Remove(ctx context.Context, userID string, pokemonID int) error {
	userID, err := validateUserID(userID)
	if err != nil {
		return err
	}
	if err := validatePokemonID(pokemonID); err != nil {
		return err
	}

	if err := s.repo.RemoveSaved(ctx, userID, pokemonID); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logStorageError("failed to remove pokemon", err,
				slog.String("userID", userID),
				slog.Int("pokemonID", pokemonID),
			)
		}
		return fmt.Errorf("removing pokemon: %w", err)
	}

	s.logger.Info("pokemon removed",
		slog.String("userID", userID),
		slog.Int("pokemonID", pokemonID),
	)
	return nil
}

// logStorageError logs err at Error with the provider code when it has one.
func (s *CollectionService) logStorageError(msg string, err error, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	for _, a := range attrs {
		args = append(args, a)
	}
	args = append(args, slog.String("error", err.Error()))
	if code := apperror.CodeOf(err); code != "" {
		args = append(args, slog.String("code", code))
	}
	s.logger.Error(msg, args...)
}
