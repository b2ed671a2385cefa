package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/modelpath"
	"github.com/sakif/pokedex/internal/repository"
)

// relatedExts are uploaded alongside a model.
var relatedExts = []string{"mtl", "png", "jpg", "jpeg", "tga"}

// objectStore is the part of storage/minio.Client the job uses.
type objectStore interface {
	Stat(ctx context.Context, key string) (size int64, exists bool, err error)
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PublicURL(key string) string
}

type summary struct {
	Found    int
	Missing  int
	Uploaded int
	Failed   int
}

type scanJob struct {
	repo    repository.ModelRepository
	scanner *modelpath.Scanner
	objects objectStore // nil unless -upload
	workers int
	logger  *slog.Logger
}

// Run scans ids from..to with up to j.workers ids in flight. A failure
// for one id is logged and counted; only a cancelled context stops the run.
func (j *scanJob) Run(ctx context.Context, from, to int) (summary, error) {
	var (
		mu  sync.Mutex
		sum summary
	)

	g := new(errgroup.Group)
	g.SetLimit(max(j.workers, 1))

	for id := from; id <= to; id++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			found, uploaded, err := j.scanOne(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			sum.Uploaded += uploaded
			switch {
			case err != nil:
				sum.Failed++
				j.logger.Error("scan failed", slog.Int("pokemonID", id), slog.String("error", err.Error()))
			case found:
				sum.Found++
			default:
				sum.Missing++
				j.logger.Warn("no model file", slog.Int("pokemonID", id))
			}
			return nil
		})
	}
	_ = g.Wait()

	return sum, ctx.Err()
}

func (j *scanJob) scanOne(ctx context.Context, id int) (found bool, uploaded int, err error) {
	cands, err := j.scanner.Candidates(id)
	if err != nil {
		return false, 0, err
	}
	best, ok := modelpath.Pick(id, cands)
	if !ok {
		// keep the row so the table covers the whole range
		missing := &model.ModelMetadata{
			PokemonID:   id,
			ModelPath:   modelpath.CanonicalURL(id),
			ModelType:   "dae",
			StorageType: model.StorageLocal,
			IsPrimary:   true,
			FileExists:  false,
		}
		if err := j.repo.UpsertModel(ctx, missing); err != nil {
			return false, 0, fmt.Errorf("saving model row: %w", err)
		}
		return false, 0, nil
	}

	urlPath := modelpath.URL(id, best.RelPath)
	size := best.Size
	meta := &model.ModelMetadata{
		PokemonID:   id,
		ModelPath:   urlPath,
		ModelType:   best.Ext,
		FileSize:    &size,
		StorageType: model.StorageLocal,
		IsPrimary:   true,
		FileExists:  true,
	}

	if j.objects != nil {
		cdnURL, n, err := j.upload(ctx, urlPath)
		uploaded = n
		if err != nil {
			return false, uploaded, err
		}
		meta.CDNURL = &cdnURL
		meta.StorageType = model.StorageCDN
	}

	if err := j.repo.UpsertModel(ctx, meta); err != nil {
		return false, uploaded, fmt.Errorf("saving model row: %w", err)
	}
	j.logger.Info("model recorded",
		slog.Int("pokemonID", id),
		slog.String("path", urlPath),
		slog.String("storage", meta.StorageType),
	)
	return true, uploaded, nil
}

// upload copies the model and its related files. Objects that already
// exist with the same size are skipped. It returns the model's public URL
// and the number of files sent.
func (j *scanJob) upload(ctx context.Context, urlPath string) (string, int, error) {
	related, err := j.scanner.Siblings(urlPath, relatedExts...)
	if err != nil {
		return "", 0, fmt.Errorf("listing related files: %w", err)
	}

	sent := 0
	for _, p := range append([]string{urlPath}, related...) {
		ok, err := j.putFile(ctx, p)
		if err != nil {
			if p == urlPath {
				return "", sent, err
			}
			// textures are best effort
			j.logger.Warn("related file upload failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if ok {
			sent++
		}
	}
	return j.objects.PublicURL(objectKey(urlPath)), sent, nil
}

func (j *scanJob) putFile(ctx context.Context, urlPath string) (bool, error) {
	size, ok := j.scanner.Stat(urlPath)
	if !ok {
		return false, fmt.Errorf("%s: file vanished", urlPath)
	}
	key := objectKey(urlPath)

	remote, exists, err := j.objects.Stat(ctx, key)
	if err != nil {
		return false, err
	}
	if exists && remote == size {
		return false, nil
	}

	f, err := j.scanner.Open(urlPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := j.objects.Upload(ctx, key, f, size, ""); err != nil {
		return false, err
	}
	return true, nil
}

// objectKey maps /pokemon/25/a.dae to pokemon/25/a.dae.
func objectKey(urlPath string) string {
	return strings.TrimPrefix(urlPath, "/")
}
