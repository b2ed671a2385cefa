// Package repotest is the behavioural contract every repository.Store must
// satisfy. Backends call Run from their own tests so the postgres and
// sqlite implementations cannot drift apart.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

// Factory returns an empty, migrated store. Run calls it once per subtest.
type Factory func(t *testing.T) repository.Store

var ash = model.Profile{Email: "ash@pallet.town", Name: "Ash", Picture: "https://example.com/ash.png"}

// Run executes the whole contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AddThenList", func(t *testing.T) { testAddThenList(t, newStore(t)) })
	t.Run("AddIsIdempotent", func(t *testing.T) { testAddIsIdempotent(t, newStore(t)) })
	t.Run("NewUserNeedsProfile", func(t *testing.T) { testNewUserNeedsProfile(t, newStore(t)) })
	t.Run("ExistingUserProfileRefresh", func(t *testing.T) { testProfileRefresh(t, newStore(t)) })
	t.Run("PictureRefresh", func(t *testing.T) { testPictureRefresh(t, newStore(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, newStore(t)) })
	t.Run("ListUnknownUser", func(t *testing.T) { testListUnknownUser(t, newStore(t)) })
	t.Run("RemoveLifecycle", func(t *testing.T) { testRemoveLifecycle(t, newStore(t)) })
	t.Run("CollectionsAreIsolated", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("ModelMetadata", func(t *testing.T) { testModelMetadata(t, newStore(t)) })
	t.Run("Check", func(t *testing.T) { testCheck(t, newStore(t)) })
}

func testAddThenList(t *testing.T, s repository.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddSaved(ctx, "u1", 25, ash))

	saved, err := s.ListSaved(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 25, saved[0].PokemonID)
	assert.Equal(t, "u1", saved[0].UserID)
	assert.False(t, saved[0].AddedAt.IsZero())

	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ash@pallet.town", u.Email)
	assert.Equal(t, "Ash", u.Name)
	require.NotNil(t, u.Picture)
	assert.Equal(t, ash.Picture, *u.Picture)
}

func testAddIsIdempotent(t *testing.T, s repository.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddSaved(ctx, "u1", 25, ash))
	for i := 0; i < 3; i++ {
		err := s.AddSaved(ctx, "u1", 25, ash)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrConflict), "duplicate must be a conflict, got %v", err)
	}

	saved, err := s.ListSaved(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, saved, 1, "pair must appear exactly once")
}

func testNewUserNeedsProfile(t *testing.T, s repository.Store) {
	ctx := context.Background()

	for _, p := range []model.Profile{{}, {Email: "x@y.z"}, {Name: "Misty"}} {
		err := s.AddSaved(ctx, "newbie", 7, p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
	}

	_, err := s.GetUserByID(ctx, "newbie")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "no user row may be created")

	saved, err := s.ListSaved(ctx, "newbie")
	require.NoError(t, err)
	assert.Empty(t, saved, "no saved row may be created")
}

func testProfileRefresh(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddSaved(ctx, "u1", 1, ash))

	// existing user: profile may be partial
	require.NoError(t, s.AddSaved(ctx, "u1", 4, model.Profile{Name: "Ash Ketchum"}))

	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ash Ketchum", u.Name)
	assert.Equal(t, "ash@pallet.town", u.Email, "empty fields keep the stored value")

	// a duplicate still refreshes the profile
	err = s.AddSaved(ctx, "u1", 4, model.Profile{Email: "ash@kanto.org"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ash@kanto.org", u.Email)
	assert.Nil(t, u.Picture, "a profile without picture clears the avatar")
}

func testPictureRefresh(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddSaved(ctx, "u1", 1, ash))

	// a bare save carries no profile and leaves the row alone
	require.NoError(t, s.AddSaved(ctx, "u1", 4, model.Profile{}))
	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Picture)
	assert.Equal(t, ash.Picture, *u.Picture)

	newPic := "https://example.com/ash-2.png"
	require.NoError(t, s.AddSaved(ctx, "u1", 7, model.Profile{Email: ash.Email, Name: ash.Name, Picture: newPic}))
	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Picture)
	assert.Equal(t, newPic, *u.Picture)

	require.NoError(t, s.AddSaved(ctx, "u1", 25, model.Profile{Email: ash.Email, Name: ash.Name}))
	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, u.Picture)
}

func testListNewestFirst(t *testing.T, s repository.Store) {
	ctx := context.Background()
	for _, id := range []int{1, 4, 7} {
		require.NoError(t, s.AddSaved(ctx, "u1", id, ash))
		time.Sleep(5 * time.Millisecond)
	}

	saved, err := s.ListSaved(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, []int{7, 4, 1}, []int{saved[0].PokemonID, saved[1].PokemonID, saved[2].PokemonID})
}

func testListUnknownUser(t *testing.T, s repository.Store) {
	saved, err := s.ListSaved(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, saved)
	assert.Empty(t, saved)
}

func testRemoveLifecycle(t *testing.T, s repository.Store) {
	ctx := context.Background()

	err := s.RemoveSaved(ctx, "u1", 25)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "removing an unsaved pair is not found")

	require.NoError(t, s.AddSaved(ctx, "u1", 25, ash))
	require.NoError(t, s.RemoveSaved(ctx, "u1", 25))

	saved, err := s.ListSaved(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, saved)

	err = s.RemoveSaved(ctx, "u1", 25)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testIsolation(t *testing.T, s repository.Store) {
	ctx := context.Background()
	misty := model.Profile{Email: "misty@cerulean.city", Name: "Misty"}

	require.NoError(t, s.AddSaved(ctx, "u1", 25, ash))
	require.NoError(t, s.AddSaved(ctx, "u2", 25, misty), "same species for another user is not a duplicate")

	err := s.RemoveSaved(ctx, "u2", 1)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	require.NoError(t, s.RemoveSaved(ctx, "u2", 25))
	saved, err := s.ListSaved(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, saved, 1, "u1 keeps its entry")
}

func testModelMetadata(t *testing.T, s repository.Store) {
	ctx := context.Background()

	_, err := s.GetModel(ctx, 25)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	size := int64(1024)
	m := &model.ModelMetadata{
		PokemonID:  25,
		ModelPath:  "/pokemon/25/pm0025_00_00.dae",
		ModelType:  "dae",
		FileSize:   &size,
		IsPrimary:  true,
		FileExists: true,
	}
	require.NoError(t, s.UpsertModel(ctx, m))
	assert.Equal(t, model.StorageLocal, m.StorageType)

	got, err := s.GetModel(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, m.ModelPath, got.ModelPath)
	assert.Nil(t, got.CDNURL)
	require.NotNil(t, got.FileSize)
	assert.Equal(t, size, *got.FileSize)
	assert.True(t, got.FileExists)

	cdn := "https://cdn.example.com/models/25/pm0025_00_00.dae"
	m.CDNURL = &cdn
	m.StorageType = model.StorageCDN
	require.NoError(t, s.UpsertModel(ctx, m))

	got, err = s.GetModel(ctx, 25)
	require.NoError(t, err)
	require.NotNil(t, got.CDNURL)
	assert.Equal(t, cdn, *got.CDNURL)
	assert.Equal(t, model.StorageCDN, got.StorageType)

	require.NoError(t, s.UpsertModel(ctx, &model.ModelMetadata{PokemonID: 1, ModelPath: "/pokemon/1/a.obj", ModelType: "obj"}))
	all, err := s.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].PokemonID)
	assert.Equal(t, 25, all[1].PokemonID)
}

func testCheck(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Check(ctx))
	require.NoError(t, s.Init(ctx), "init is repeatable")
}
