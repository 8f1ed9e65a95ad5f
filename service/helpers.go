package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/emzola/bookshelf/internal/cover"
)

// background launches a tracked goroutine and recovers from panics inside it.
func (s *service) background(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				s.logger.PrintError(fmt.Errorf("%s", err), nil)
			}
		}()
		fn()
	}()
}

// coverKey derives the content-addressed object key of an original cover upload.
func coverKey(c cover.Cover) string {
	sum := sha256.Sum256(c.Source)
	return "covers/" + hex.EncodeToString(sum[:]) + c.Extension()
}

// archiveCover uploads the original cover of a book in the background and records
// its key on the book. Failures are logged and never surface to the caller.
func (s *service) archiveCover(ctx context.Context, bookID string, c cover.Cover) {
	if s.archive == nil || len(c.Source) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.background(func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		key := coverKey(c)
		if err := s.archive.Archive(ctx, key, c.SourceMIME, c.Source); err != nil {
			s.logger.PrintError(err, map[string]string{"book_id": bookID, "key": key})
			return
		}
		if err := s.repo.SetBookCoverSourceKey(ctx, bookID, key); err != nil {
			s.logger.PrintError(err, map[string]string{"book_id": bookID, "key": key})
			return
		}
		s.logger.PrintInfo("cover archived", map[string]string{"book_id": bookID, "key": key})
	})
}

// sendMail delivers a templated email in the background.
func (s *service) sendMail(recipient, templateFile string, data any) {
	if s.mailer == nil {
		return
	}
	s.background(func() {
		if err := s.mailer.Send(recipient, templateFile, data); err != nil {
			s.logger.PrintError(err, map[string]string{"template": templateFile})
		}
	})
}
