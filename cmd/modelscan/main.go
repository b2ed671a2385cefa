// Command modelscan records which model file each species uses.
//
// USAGE:
//
//	modelscan [-from 1] [-to 151] [-upload] [-workers 4]
//
// For every id it scans ASSET_ROOT/pokemon/{id}, picks the model the
// server would pick, and upserts the pokemon_model row. With -upload the
// model and its sibling .mtl/.png/.jpg/.jpeg/.tga files are copied to the
// object store (MINIO_*) and the row records the public URL with
// storage_type "cdn".
//
// Configuration is the server's: DATABASE_URL, DATABASE_DRIVER, ASSET_ROOT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/pokedex/internal/config"
	"github.com/sakif/pokedex/internal/modelpath"
	"github.com/sakif/pokedex/internal/server"
	"github.com/sakif/pokedex/internal/storage/minio"
)

func main() {
	from := flag.Int("from", 1, "first species id")
	to := flag.Int("to", 151, "last species id")
	upload := flag.Bool("upload", false, "upload models to the object store")
	workers := flag.Int("workers", 4, "species scanned concurrently")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if *from < 1 || *to < *from {
		logger.Error("invalid id range", slog.Int("from", *from), slog.Int("to", *to))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	job := &scanJob{
		repo:    store,
		scanner: modelpath.NewScanner(os.DirFS(cfg.AssetRoot)),
		workers: *workers,
		logger:  logger,
	}

	if *upload {
		if !cfg.Storage.Enabled() {
			logger.Error("-upload needs MINIO_ENDPOINT")
			os.Exit(2)
		}
		objects, err := minio.Open(ctx, minio.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			logger.Error("failed to connect to object store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		job.objects = objects
	}

	sum, err := job.Run(ctx, *from, *to)
	logger.Info("scan finished",
		slog.Int("found", sum.Found),
		slog.Int("missing", sum.Missing),
		slog.Int("uploaded_files", sum.Uploaded),
		slog.Int("failed", sum.Failed),
	)
	if err != nil {
		logger.Error("scan aborted", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
