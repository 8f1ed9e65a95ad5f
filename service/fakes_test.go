package service

import (
	"context"
	"crypto/sha256"
	"io"
	"sync"
	"time"

	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/emzola/bookshelf/repository"
	"github.com/google/uuid"
)

// fakeRepo is an in-memory repository.Repository.
type fakeRepo struct {
	mu        sync.Mutex
	books     map[string]*data.Book
	userBooks map[string]*data.UserBook
	reviews   map[string]*data.Review
	users     map[string]*data.User
	tokens    map[string]*data.Token
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:     map[string]*data.Book{},
		userBooks: map[string]*data.UserBook{},
		reviews:   map[string]*data.Review{},
		users:     map[string]*data.User{},
		tokens:    map[string]*data.Token{},
	}
}

func (f *fakeRepo) CreateBookWithUserBook(_ context.Context, book *data.Book, userBook *data.UserBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	book.ID = uuid.NewString()
	book.CreatedAt = time.Now()
	userBook.ID = uuid.NewString()
	userBook.UserID = book.UserID
	userBook.BookID = book.ID
	userBook.Version = 1
	userBook.Book = book
	stored := *book
	f.books[book.ID] = &stored
	ub := *userBook
	f.userBooks[userBook.ID] = &ub
	return nil
}

func (f *fakeRepo) GetBook(_ context.Context, bookID string) (*data.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[bookID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *book
	return &copied, nil
}

func (f *fakeRepo) GetAllBooks(_ context.Context, _, _ string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	books := []*data.Book{}
	for _, b := range f.books {
		books = append(books, b)
	}
	return books, data.CalculateMetadata(len(books), filters.Page, filters.PageSize), nil
}

func (f *fakeRepo) SetBookCoverSourceKey(_ context.Context, bookID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[bookID]
	if !ok {
		return repository.ErrRecordNotFound
	}
	book.CoverSourceKey = key
	return nil
}

func (f *fakeRepo) CreateUserBook(_ context.Context, userBook *data.UserBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[userBook.BookID]; !ok {
		return repository.ErrRecordNotFound
	}
	for _, ub := range f.userBooks {
		if ub.UserID == userBook.UserID && ub.BookID == userBook.BookID {
			return repository.ErrDuplicateRecord
		}
	}
	userBook.ID = uuid.NewString()
	userBook.Version = 1
	copied := *userBook
	f.userBooks[userBook.ID] = &copied
	return nil
}

func (f *fakeRepo) GetUserBook(_ context.Context, userBookID string) (*data.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ub, ok := f.userBooks[userBookID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *ub
	return &copied, nil
}

func (f *fakeRepo) GetUserBookForBook(_ context.Context, userID, bookID string) (*data.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ub := range f.userBooks {
		if ub.UserID == userID && ub.BookID == bookID {
			copied := *ub
			return &copied, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (f *fakeRepo) UpdateUserBook(_ context.Context, userBook *data.UserBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.userBooks[userBook.ID]
	if !ok || stored.Version != userBook.Version {
		return repository.ErrEditConflict
	}
	userBook.Version++
	copied := *userBook
	f.userBooks[userBook.ID] = &copied
	return nil
}

func (f *fakeRepo) DeleteUserBook(_ context.Context, userBookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.userBooks[userBookID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(f.userBooks, userBookID)
	return nil
}

func (f *fakeRepo) GetAllUserBooksForUser(_ context.Context, userID string, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.UserBook{}
	for _, ub := range f.userBooks {
		if ub.UserID == userID && (progress == "" || string(ub.Progress) == progress) {
			out = append(out, ub)
		}
	}
	return out, data.CalculateMetadata(len(out), filters.Page, filters.PageSize), nil
}

func (f *fakeRepo) CreateReview(_ context.Context, review *data.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.BookID == review.BookID {
			return repository.ErrDuplicateRecord
		}
	}
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now()
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeRepo) GetReview(_ context.Context, reviewID string) (*data.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[reviewID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRepo) DeleteReview(_ context.Context, reviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[reviewID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(f.reviews, reviewID)
	return nil
}

func (f *fakeRepo) GetRatingsForBook(_ context.Context, bookID string) ([]*data.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Review{}
	for _, r := range f.reviews {
		if r.BookID == bookID {
			out = append(out, &data.Review{ID: r.ID, BookID: bookID, Rating: r.Rating})
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAllReviewsForBook(_ context.Context, bookID string, filters data.Filters) ([]*data.Review, data.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Review{}
	for _, r := range f.reviews {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	total := len(out)
	if len(out) > filters.Limit() {
		out = out[:filters.Limit()]
	}
	return out, data.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (f *fakeRepo) GetAllReviewsForUser(_ context.Context, userID string, filters data.Filters) ([]*data.Review, data.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Review{}
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, data.CalculateMetadata(len(out), filters.Page, filters.PageSize), nil
}

func (f *fakeRepo) RegisterUser(_ context.Context, user *data.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateRecord
		}
	}
	user.ID = uuid.NewString()
	user.Version = 1
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, userID string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (f *fakeRepo) UpdateUser(_ context.Context, user *data.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok || stored.Version != user.Version {
		return repository.ErrEditConflict
	}
	user.Version++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeRepo) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeRepo) GetUserForToken(_ context.Context, scope string, plaintext string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash := sha256.Sum256([]byte(plaintext))
	t, ok := f.tokens[string(hash[:])]
	if !ok || t.Scope != scope || time.Now().After(t.Expiry) {
		return nil, repository.ErrRecordNotFound
	}
	u, ok := f.users[t.UserID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) CreateNewToken(_ context.Context, userID string, ttl time.Duration, scope string) (*data.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plaintext := uuid.NewString()[:26]
	hash := sha256.Sum256([]byte(plaintext))
	t := &data.Token{Plaintext: plaintext, Hash: hash[:], UserID: userID, Expiry: time.Now().Add(ttl), Scope: scope}
	f.tokens[string(t.Hash)] = t
	return t, nil
}

func (f *fakeRepo) DeleteAllTokensForUser(_ context.Context, scope string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.Scope == scope && t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type sentMail struct {
	recipient string
	template  string
	data      map[string]string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := data.(map[string]string)
	m.sent = append(m.sent, sentMail{recipient, templateFile, d})
	return nil
}

type archived struct {
	key         string
	contentType string
	size        int
}

type fakeArchiver struct {
	mu   sync.Mutex
	objs []archived
	err  error
}

func (a *fakeArchiver) Archive(_ context.Context, key, contentType string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.objs = append(a.objs, archived{key, contentType, len(body)})
	return nil
}

type testEnv struct {
	svc     *service
	repo    *fakeRepo
	mailer  *fakeMailer
	archive *fakeArchiver
	metrics *metrics.Metrics
	wg      *sync.WaitGroup
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:    newFakeRepo(),
		mailer:  &fakeMailer{},
		archive: &fakeArchiver{},
		metrics: metrics.New(),
		wg:      &sync.WaitGroup{},
	}
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	env.svc = New(config.Default(), env.wg, logger, env.repo, env.mailer, env.archive, env.metrics)
	return env
}
