package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
)

// fakeAPI is an in-memory CollectionAPI that counts calls.
type fakeAPI struct {
	mu      sync.Mutex
	saved   map[int]bool
	err     error
	adds    int
	removes int
}

func newFakeAPI(ids ...int) *fakeAPI {
	f := &fakeAPI{saved: map[int]bool{}}
	for _, id := range ids {
		f.saved[id] = true
	}
	return f
}

func (f *fakeAPI) List(context.Context, string) ([]model.SavedPokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.SavedPokemon{}
	for id := range f.saved {
		out = append(out, model.SavedPokemon{PokemonID: id, AddedAt: time.Now()})
	}
	return out, nil
}

func (f *fakeAPI) Add(_ context.Context, _ string, id int, _ model.Profile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.err != nil {
		return "", f.err
	}
	if f.saved[id] {
		return "pokemon already saved", nil
	}
	f.saved[id] = true
	return "pokemon added", nil
}

func (f *fakeAPI) Remove(_ context.Context, _ string, id int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	if f.err != nil {
		return "", f.err
	}
	if !f.saved[id] {
		return "", apperror.NotFound("pokemon", "x")
	}
	delete(f.saved, id)
	return "pokemon removed", nil
}

func TestCollection_Hydrate(t *testing.T) {
	api := newFakeAPI(1, 4)
	c := NewCollection(api, "u1", ash)

	require.NoError(t, c.Hydrate(context.Background()))
	assert.ElementsMatch(t, []int{1, 4}, c.IDs())
	assert.True(t, c.Contains(4))
	assert.False(t, c.Contains(7))
}

func TestCollection_HydrateErrorKeepsState(t *testing.T) {
	api := newFakeAPI(1)
	c := NewCollection(api, "u1", ash)
	require.NoError(t, c.Hydrate(context.Background()))

	api.err = errors.New("network down")
	assert.Error(t, c.Hydrate(context.Background()))
	assert.Equal(t, []int{1}, c.IDs())
}

func TestCollection_AddAndRemove(t *testing.T) {
	api := newFakeAPI()
	c := NewCollection(api, "u1", ash)
	ctx := context.Background()

	res, err := c.Add(ctx, 25)
	require.NoError(t, err)
	assert.False(t, res.AlreadySaved)
	assert.Equal(t, "pokemon added", res.Message)

	_, err = c.Add(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 25}, c.IDs(), "newest first")

	res, err = c.Add(ctx, 25)
	require.NoError(t, err)
	assert.True(t, res.AlreadySaved)
	assert.Equal(t, MsgAlreadySaved, res.Message)
	assert.Equal(t, 2, api.adds, "a locally known id sends no request")

	msg, err := c.Remove(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, "pokemon removed", msg)
	assert.Equal(t, []int{7}, c.IDs())

	_, err = c.Remove(ctx, 25)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, []int{7}, c.IDs())
}

func TestCollection_FailedAddLeavesStateAlone(t *testing.T) {
	api := newFakeAPI()
	api.err = errors.New("boom")
	c := NewCollection(api, "u1", ash)

	_, err := c.Add(context.Background(), 25)
	assert.Error(t, err)
	assert.False(t, c.Contains(25))
}

func TestCollection_SignedOut(t *testing.T) {
	api := newFakeAPI(1)
	c := NewCollection(api, "", model.Profile{})
	ctx := context.Background()

	require.NoError(t, c.Hydrate(ctx))
	assert.Empty(t, c.IDs())

	_, err := c.Add(ctx, 25)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = c.Remove(ctx, 1)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Zero(t, api.adds+api.removes)
}

func TestCollection_ConcurrentAdds(t *testing.T) {
	api := newFakeAPI()
	c := NewCollection(api, "u1", ash)

	var wg sync.WaitGroup
	for id := 1; id <= 20; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := c.Add(context.Background(), id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Len(t, c.IDs(), 20)
	ids := c.IDs()
	ids[0] = -1
	assert.NotEqual(t, -1, c.IDs()[0], "IDs returns a copy")
}
