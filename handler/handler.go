package handler

import (
	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/emzola/bookshelf/service"
	"github.com/jellydator/ttlcache/v3"
)

// Handler defines Handler layer.
type Handler struct {
	config  config.Config
	logger  *jsonlog.Logger
	cache   *ttlcache.Cache[string, string]
	service service.Service
	metrics *metrics.Metrics
}

// New creates a new instance of Handler. The cache holds the owner IDs of
// collection entries and reviews; m may be nil when metrics are disabled.
func New(cfg config.Config, logger *jsonlog.Logger, cache *ttlcache.Cache[string, string], service service.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		config:  cfg,
		logger:  logger,
		cache:   cache,
		service: service,
		metrics: m,
	}
}
