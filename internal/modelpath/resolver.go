package modelpath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
)

// Resolver picks the cache or the scan for each request.
//
// Concurrent requests for the same id share one lookup. Nothing is kept
// after the lookup returns: the disk may change between requests and every
// read re-verifies it.
type Resolver struct {
	cache  Locator // may be nil when no database is configured
	scan   Locator
	group  singleflight.Group
	logger *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(cache, scan Locator, logger *slog.Logger) *Resolver {
	return &Resolver{cache: cache, scan: scan, logger: logger}
}

// Resolve returns the model for pokemonID. Only a non-positive id or a
// failing filesystem walk is an error.
func (r *Resolver) Resolve(ctx context.Context, pokemonID int) (*model.ModelResolution, error) {
	if err := validateID(pokemonID); err != nil {
		return nil, err
	}

	// The flight outlives any single caller, so it runs without their
	// cancellation. Each caller still stops waiting when its own ctx ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(strconv.Itoa(pokemonID), func() (any, error) {
		return r.resolve(flightCtx, pokemonID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		// callers sharing a flight must not share the pointer
		res := *out.Val.(*model.ModelResolution)
		return &res, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, pokemonID int) (*model.ModelResolution, error) {
	if r.cache != nil {
		res, err := r.cache.Locate(ctx, pokemonID)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, apperror.ErrNotFound):
			r.logger.Debug("model not cached, scanning", slog.Int("pokemonID", pokemonID))
		case errors.Is(err, ErrStale):
			r.logger.Info("cached model is stale, scanning", slog.Int("pokemonID", pokemonID), slog.String("error", err.Error()))
		default:
			attrs := []any{slog.Int("pokemonID", pokemonID), slog.String("error", err.Error())}
			if code := apperror.CodeOf(err); code != "" {
				attrs = append(attrs, slog.String("code", code))
			}
			r.logger.Warn("model cache unavailable, scanning", attrs...)
		}
	}

	res, err := r.scan.Locate(ctx, pokemonID)
	if err != nil {
		return nil, fmt.Errorf("resolving model for pokemon %d: %w", pokemonID, err)
	}
	if !res.FileExists {
		r.logger.Warn("model file not found", slog.Int("pokemonID", pokemonID), slog.String("fallback", res.ModelPath))
	}
	return res, nil
}
