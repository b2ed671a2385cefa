// Package pokeapi reads species details from the public PokéAPI and merges
// the /pokemon and /pokemon-species documents into one Species value.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/pokedex/internal/apperror"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	DefaultLang    = "ko"

	// MaxSpeciesID is the highest id the API serves species data for.
	MaxSpeciesID = 1025

	serviceName = "pokeapi"
)

// Species is the merged view of one species.
type Species struct {
	ID          int      `json:"id"`
	NameEn      string   `json:"name_en"`
	NameKo      string   `json:"name_ko"`
	Description string   `json:"description"`
	Types       []string `json:"types"`
	Height      string   `json:"height"`
	Weight      string   `json:"weight"`
	Category    string   `json:"category"`
	Ability     string   `json:"ability"`
	Gender      string   `json:"gender"`
}

// Client fetches and memoizes species details. Only successful lookups are
// memoized; concurrent lookups for one id share a single pair of requests.
type Client struct {
	baseURL string
	lang    string
	http    *http.Client
	logger  *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[int]*Species
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLanguage sets the language used for the description and category.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.lang = lang
		}
	}
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		lang:    DefaultLang,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		cache:   make(map[int]*Species),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateID rejects ids outside 1..MaxSpeciesID.
func ValidateID(id int) error {
	if id < 1 || id > MaxSpeciesID {
		return apperror.ValidationFailed("id", fmt.Sprintf("species id must be between 1 and %d", MaxSpeciesID))
	}
	return nil
}

// Species returns the merged details for id.
func (c *Client) Species(ctx context.Context, id int) (*Species, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.cache[id]
	c.mu.RUnlock()
	if ok {
		return cloneSpecies(cached), nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.Itoa(id), func() (any, error) {
		s, err := c.fetch(flightCtx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[id] = s
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			c.logger.Warn("species lookup failed", slog.Int("id", id), slog.String("error", out.Err.Error()))
			return nil, out.Err
		}
		return cloneSpecies(out.Val.(*Species)), nil
	}
}

func (c *Client) fetch(ctx context.Context, id int) (*Species, error) {
	var (
		p  pokemonDoc
		sp speciesDoc
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, fmt.Sprintf("/pokemon/%d", id), &p) })
	g.Go(func() error { return c.getJSON(gctx, fmt.Sprintf("/pokemon-species/%d", id), &sp) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := merge(&p, &sp, c.lang)
	s.ID = id
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("pokeapi: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Upstream(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return apperror.Upstream(serviceName, fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperror.Upstream(serviceName, fmt.Errorf("decoding %s: %w", path, err))
	}
	return nil
}

func cloneSpecies(s *Species) *Species {
	out := *s
	out.Types = append([]string(nil), s.Types...)
	return &out
}
