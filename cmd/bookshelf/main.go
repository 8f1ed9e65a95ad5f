package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/emzola/bookshelf/clients"
	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/handler"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/mailer"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/emzola/bookshelf/internal/migrations"
	"github.com/emzola/bookshelf/repository"
	"github.com/emzola/bookshelf/repository/postgres"
	"github.com/emzola/bookshelf/service"
	"github.com/jellydator/ttlcache/v3"
	"github.com/joho/godotenv"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	logger  *jsonlog.Logger
	repo    repository.Repository
	service service.Service
	handler *handler.Handler
}

// @title  Bookshelf API
// @version 1.0.0
// @description This is an API service for tracking a personal library: books, reading progress, covers and reviews.
// @contact.name API Support
// @BasePath /
func main() {
	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	migrate := flag.Bool("migrate", false, "Apply database migrations before serving")
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.PrintError(err, nil)
	}

	// Initialize configuration
	cfg, err := config.Decode(*configPath)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	if *migrate {
		cfg.Database.Migrate = true
	}
	logger = jsonlog.New(os.Stdout, jsonlog.ParseLevel(cfg.Server.LogLevel))

	// Initialize database connection
	ctx := context.Background()
	db, err := postgres.OpenDBConn(ctx, cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", nil)

	if cfg.Database.Migrate {
		version, err := migrations.Up(db)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		logger.PrintInfo("database migrations applied", map[string]string{
			"version": fmt.Sprint(version),
		})
	}

	// Optional cover archival to S3
	var archive service.Archiver
	if cfg.S3.Enabled {
		client, err := clients.NewS3Client(ctx, cfg)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		archive = clients.NewCoverArchive(client, cfg.S3.Bucket)
		logger.PrintInfo("cover archival enabled", map[string]string{
			"bucket": cfg.S3.Bucket,
		})
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Other shared resources: waitgroup and in-memory owner cache
	var wg sync.WaitGroup
	cache := ttlcache.New(ttlcache.WithTTL[string, string](30 * time.Minute))
	go cache.Start()
	defer cache.Stop()

	mail := mailer.New(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.Sender)

	// Application layers
	repo := repository.New(db)
	svc := service.New(cfg, &wg, logger, repo, mail, archive, m)
	h := handler.New(cfg, logger, cache, svc, m)

	app := &app{
		config:  cfg,
		logger:  logger,
		repo:    repo,
		service: svc,
		handler: h,
	}

	// Start HTTP server
	err = app.serve(&wg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}
