package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/modelpath"
	"github.com/sakif/pokedex/internal/repository/sqlite"
)

// fakeObjects is an in-memory objectStore.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failKey string
}

func (f *fakeObjects) Stat(_ context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return int64(len(b)), ok, nil
}

func (f *fakeObjects) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if key == f.failKey {
		return "", errors.New("upload refused")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return f.PublicURL(key), nil
}

func (f *fakeObjects) PublicURL(key string) string {
	return "https://cdn.example.com/models/" + key
}

var assets = fstest.MapFS{
	"pokemon/1/pm0001_00_00.dae":           {Data: []byte("<COLLADA>bulbasaur</COLLADA>")},
	"pokemon/1/pm0001_00_00.mtl":           {Data: []byte("newmtl Body\nmap_Kd body.png\n")},
	"pokemon/1/body.png":                   {Data: []byte("png")},
	"pokemon/1/readme.txt":                 {Data: []byte("ignored")},
	"pokemon/1/pm0001_00_00_collision.dae": {Data: []byte("<COLLADA/>")},
	"pokemon/2/ivysaur.obj":                {Data: []byte("v 0 0 0\n")},
	"pokemon/2/shiny/ivysaur_shiny.obj":    {Data: []byte("v 0 0 0\n")},
}

func newJob(t *testing.T, objects objectStore) (*scanJob, *sqlite.DB) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &scanJob{
		repo:    store,
		scanner: modelpath.NewScanner(assets),
		objects: objects,
		workers: 3,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, store
}

func TestScanJob_RecordsLocalModels(t *testing.T) {
	job, store := newJob(t, nil)
	ctx := context.Background()

	sum, err := job.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, summary{Found: 2, Missing: 8}, sum)

	all, err := store.ListModels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	m, err := store.GetModel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "/pokemon/1/pm0001_00_00.dae", m.ModelPath)
	assert.Equal(t, "dae", m.ModelType)
	assert.Equal(t, model.StorageLocal, m.StorageType)
	assert.True(t, m.FileExists)
	require.NotNil(t, m.FileSize)
	assert.EqualValues(t, len("<COLLADA>bulbasaur</COLLADA>"), *m.FileSize)
	assert.Nil(t, m.CDNURL)

	m, err = store.GetModel(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "/pokemon/2/ivysaur.obj", m.ModelPath)

	m, err = store.GetModel(ctx, 3)
	require.NoError(t, err)
	assert.False(t, m.FileExists)
	assert.Equal(t, modelpath.CanonicalURL(3), m.ModelPath)
}

func TestScanJob_Upload(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{}}
	job, store := newJob(t, objects)
	ctx := context.Background()

	sum, err := job.Run(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Found)
	assert.Equal(t, 3, sum.Uploaded, "model, mtl and png")

	assert.Contains(t, objects.objects, "pokemon/1/pm0001_00_00.dae")
	assert.Contains(t, objects.objects, "pokemon/1/pm0001_00_00.mtl")
	assert.Contains(t, objects.objects, "pokemon/1/body.png")
	assert.NotContains(t, objects.objects, "pokemon/1/readme.txt")

	m, err := store.GetModel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StorageCDN, m.StorageType)
	require.NotNil(t, m.CDNURL)
	assert.Equal(t, "https://cdn.example.com/models/pokemon/1/pm0001_00_00.dae", *m.CDNURL)

	// unchanged objects are not sent again
	sum, err = job.Run(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, sum.Uploaded)
}

func TestScanJob_UploadFailures(t *testing.T) {
	t.Run("model upload fails", func(t *testing.T) {
		objects := &fakeObjects{objects: map[string][]byte{}, failKey: "pokemon/2/ivysaur.obj"}
		job, store := newJob(t, objects)

		sum, err := job.Run(context.Background(), 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Failed)

		_, err = store.GetModel(context.Background(), 2)
		assert.Error(t, err, "no row for a failed upload")
	})

	t.Run("texture upload fails", func(t *testing.T) {
		objects := &fakeObjects{objects: map[string][]byte{}, failKey: "pokemon/1/body.png"}
		job, _ := newJob(t, objects)

		sum, err := job.Run(context.Background(), 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Found)
		assert.Equal(t, 2, sum.Uploaded)
	})
}

func TestScanJob_Cancelled(t *testing.T) {
	job, _ := newJob(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := job.Run(ctx, 1, 151)
	assert.ErrorIs(t, err, context.Canceled)
}
