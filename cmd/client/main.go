package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophshop/internal/buildinfo"
	"github.com/dmitrijs2005/gophshop/internal/client/cli"
	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/config"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/directory"
	"github.com/dmitrijs2005/gophshop/internal/client/services"
	"github.com/dmitrijs2005/gophshop/internal/client/store"
	"github.com/dmitrijs2005/gophshop/internal/filex"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseFile != config.MemoryDatabase {
		if cfg.DataDir, err = filex.EnsureDir(cfg.DataDir); err != nil {
			log.Fatalf("%v", err)
		}
	}

	repos, err := client.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer repos.Close()

	dir := directory.New(repos.KV, logger)
	st := store.New(ctx, repos.KV, dir, store.WithLogger(logger))

	httpClient := client.NewHTTPClient(cfg.CatalogBaseURL, cfg.RequestTimeout,
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst))

	catalog := services.NewCatalogService(httpClient, logger, services.CatalogOptions{
		Limit:        cfg.CatalogLimit,
		StaleTime:    cfg.CacheStaleTime,
		GCTime:       cfg.CacheGCTime,
		RetryBackoff: cfg.RetryBackoff,
	})

	var avatars services.AvatarStore = services.DataURLAvatarStore{}
	if cfg.UsesS3() {
		avatars = services.NewS3AvatarStore(services.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		}, nil)
	}

	app := cli.NewApp(cfg, st, catalog, avatars, logger)
	app.Run(ctx)

}
