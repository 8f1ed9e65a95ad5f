package service

import (
	"errors"
	"fmt"

	"github.com/emzola/bookshelf/internal/cover"
	"github.com/emzola/bookshelf/internal/metrics"
)

type covers interface {
	IngestCover(payload string) (cover.Cover, error)
}

// IngestCover service validates and normalizes a cover image supplied as a data URI.
func (s *service) IngestCover(payload string) (cover.Cover, error) {
	c, err := cover.Ingest(payload)
	s.countCover(err)
	if err != nil {
		return cover.Cover{}, coverError(err)
	}
	return c, nil
}

// coverError places an ingestion error under the service error it maps to, keeping
// the original in the chain.
func coverError(err error) error {
	switch {
	case errors.Is(err, cover.ErrUnsupportedImageFormat):
		return fmt.Errorf("%w: %w", ErrUnsupportedMediaType, err)
	case errors.Is(err, cover.ErrImageTooLarge):
		return fmt.Errorf("%w: %w", ErrContentTooLarge, err)
	case errors.Is(err, cover.ErrInvalidImageData):
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	default:
		return err
	}
}

func (s *service) countCover(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.CoverIngested(metrics.CoverAccepted)
	case errors.Is(err, cover.ErrUnsupportedImageFormat):
		s.metrics.CoverIngested(metrics.CoverUnsupported)
	case errors.Is(err, cover.ErrImageTooLarge):
		s.metrics.CoverIngested(metrics.CoverTooLarge)
	default:
		s.metrics.CoverIngested(metrics.CoverInvalid)
	}
}
