package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/cover"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/emzola/bookshelf/service"
	"github.com/jellydator/ttlcache/v3"
)

const (
	activeToken   = "AAAAAAAAAAAAAAAAAAAAAAAAAA"
	inactiveToken = "BBBBBBBBBBBBBBBBBBBBBBBBBB"
	aliceID       = "6f1c1e0e-8a6b-4b36-9a31-4f0f8f6a0001"
	bobID         = "6f1c1e0e-8a6b-4b36-9a31-4f0f8f6a0002"
	bookID        = "0b7a5d8e-2f4c-4e62-8d1a-7c3e9b1f0001"
	userBookID    = "0b7a5d8e-2f4c-4e62-8d1a-7c3e9b1f0002"
	reviewID      = "0b7a5d8e-2f4c-4e62-8d1a-7c3e9b1f0003"
)

// fakeService implements service.Service. Methods that a test doesn't stub panic
// through the nil embedded interface.
type fakeService struct {
	service.Service

	mu    sync.Mutex
	calls map[string]int

	ingestCover         func(payload string) (cover.Cover, error)
	createBook          func(userID string, body dto.CreateBookRequestBody) (*data.UserBook, error)
	getBook             func(bookID string) (*data.Book, data.Rating, error)
	listBooks           func(search, author string, filters data.Filters) ([]*data.Book, data.Metadata, error)
	addBookToCollection func(userID, bookID string) (*data.UserBook, error)
	getUserBook         func(userBookID string) (*data.UserBook, error)
	updateProgress      func(userID, userBookID string, progress *data.Progress) (*data.UserBook, error)
	deleteUserBook      func(userID, userBookID string) error
	listUserBooks       func(userID, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error)
	createReview        func(userID, bookID string, rating int8, comment string) (*data.Review, error)
	getReview           func(bookID, reviewID string) (*data.Review, error)
	deleteReview        func(userID, bookID, reviewID string) error
	listReviews         func(bookID string, filters data.Filters) (data.Rating, []*data.Review, data.Metadata, error)
	registerUser        func(name, email, password string) (*data.User, error)
	createAuthToken     func(email, password string) (*data.Token, error)
}

func (f *fakeService) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeService) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) GetUserForToken(_ context.Context, scope string, token string) (*data.User, error) {
	if scope != data.ScopeAuthentication {
		return nil, service.ErrRecordNotFound
	}
	switch token {
	case activeToken:
		return &data.User{ID: aliceID, Name: "Alice", Email: "alice@example.com", Activated: true}, nil
	case inactiveToken:
		return &data.User{ID: bobID, Name: "Bob", Email: "bob@example.com"}, nil
	}
	return nil, service.ErrRecordNotFound
}

func (f *fakeService) IngestCover(payload string) (cover.Cover, error) {
	f.count("IngestCover")
	return f.ingestCover(payload)
}

func (f *fakeService) CreateBook(_ context.Context, userID string, body dto.CreateBookRequestBody) (*data.UserBook, error) {
	f.count("CreateBook")
	return f.createBook(userID, body)
}

func (f *fakeService) GetBook(_ context.Context, bookID string) (*data.Book, data.Rating, error) {
	f.count("GetBook")
	return f.getBook(bookID)
}

func (f *fakeService) ListBooks(_ context.Context, search, author string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	f.count("ListBooks")
	return f.listBooks(search, author, filters)
}

func (f *fakeService) AddBookToCollection(_ context.Context, userID, bookID string) (*data.UserBook, error) {
	f.count("AddBookToCollection")
	return f.addBookToCollection(userID, bookID)
}

func (f *fakeService) GetUserBook(_ context.Context, userBookID string) (*data.UserBook, error) {
	f.count("GetUserBook")
	return f.getUserBook(userBookID)
}

func (f *fakeService) UpdateProgress(_ context.Context, userID, userBookID string, progress *data.Progress) (*data.UserBook, error) {
	f.count("UpdateProgress")
	return f.updateProgress(userID, userBookID, progress)
}

func (f *fakeService) DeleteUserBook(_ context.Context, userID, userBookID string) error {
	f.count("DeleteUserBook")
	return f.deleteUserBook(userID, userBookID)
}

func (f *fakeService) ListUserBooks(_ context.Context, userID, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error) {
	f.count("ListUserBooks")
	return f.listUserBooks(userID, progress, filters)
}

func (f *fakeService) CreateReview(_ context.Context, userID, bookID string, rating int8, comment string) (*data.Review, error) {
	f.count("CreateReview")
	return f.createReview(userID, bookID, rating, comment)
}

func (f *fakeService) GetReview(_ context.Context, bookID, reviewID string) (*data.Review, error) {
	f.count("GetReview")
	return f.getReview(bookID, reviewID)
}

func (f *fakeService) DeleteReview(_ context.Context, userID, bookID, reviewID string) error {
	f.count("DeleteReview")
	return f.deleteReview(userID, bookID, reviewID)
}

func (f *fakeService) ListReviews(_ context.Context, bookID string, filters data.Filters) (data.Rating, []*data.Review, data.Metadata, error) {
	f.count("ListReviews")
	return f.listReviews(bookID, filters)
}

func (f *fakeService) RegisterUser(_ context.Context, name, email, password string) (*data.User, error) {
	f.count("RegisterUser")
	return f.registerUser(name, email, password)
}

func (f *fakeService) CreateAuthenticationToken(_ context.Context, email, password string) (*data.Token, error) {
	f.count("CreateAuthenticationToken")
	return f.createAuthToken(email, password)
}

type testEnv struct {
	handler *Handler
	routes  http.Handler
	svc     *fakeService
	metrics *metrics.Metrics
}

// newTestEnv builds a Handler around svc with rate limiting off. opts may adjust
// the configuration before the routes are built.
func newTestEnv(t *testing.T, svc *fakeService, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Env = "testing"
	cfg.Limiter.Enabled = false
	for _, opt := range opts {
		opt(&cfg)
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	cache := ttlcache.New[string, string]()
	h := New(cfg, jsonlog.New(io.Discard, jsonlog.LevelOff), cache, svc, m)
	return &testEnv{handler: h, routes: h.Routes(), svc: svc, metrics: m}
}

func (e *testEnv) do(method, target, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.routes.ServeHTTP(rr, req)
	return rr
}
