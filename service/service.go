package service

import (
	"context"
	"sync"

	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/emzola/bookshelf/repository"
)

type Service interface {
	books
	covers
	userBooks
	reviews
	users
	tokens
}

// Mailer sends templated emails.
type Mailer interface {
	Send(recipient, templateFile string, data any) error
}

// Archiver stores original cover uploads in object storage.
type Archiver interface {
	Archive(ctx context.Context, key, contentType string, body []byte) error
}

// service defines a service layer.
type service struct {
	config  config.Config
	wg      *sync.WaitGroup
	logger  *jsonlog.Logger
	repo    repository.Repository
	mailer  Mailer
	archive Archiver
	metrics *metrics.Metrics
}

// New creates a new instance of Service. archive and m may be nil, in which case
// covers are not archived and ingestion outcomes are not counted.
func New(cfg config.Config, wg *sync.WaitGroup, logger *jsonlog.Logger, repo repository.Repository, mailer Mailer, archive Archiver, m *metrics.Metrics) *service {
	return &service{
		config:  cfg,
		wg:      wg,
		logger:  logger,
		repo:    repo,
		mailer:  mailer,
		archive: archive,
		metrics: m,
	}
}
