package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/cover"
	"github.com/emzola/bookshelf/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func validBook() dto.CreateBookRequestBody {
	return dto.CreateBookRequestBody{
		Title:       "Dune",
		Author:      "Frank Herbert",
		Description: "A desert planet.",
		PublishedOn: "1965-08-01",
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Errors
}

func TestValidationError(t *testing.T) {
	err := failedValidation(map[string]string{"title": "must be provided", "author": "must be provided"})
	assert.ErrorIs(t, err, ErrFailedValidation)
	assert.Equal(t, "failed validation: author: must be provided; title: must be provided", err.Error())
}

func TestCreateBook(t *testing.T) {
	env := newTestEnv()
	userID := uuid.NewString()

	userBook, err := env.svc.CreateBook(ctx, userID, validBook())
	require.NoError(t, err)
	assert.Equal(t, data.ProgressNotStarted, userBook.Progress)
	assert.Equal(t, userID, userBook.UserID)
	require.NotNil(t, userBook.Book)
	assert.Equal(t, "Dune", userBook.Book.Title)
	assert.Equal(t, userBook.BookID, userBook.Book.ID)
	assert.Empty(t, userBook.Book.Cover)
	require.NotNil(t, userBook.Book.PublishedOn)
	assert.Equal(t, 1965, userBook.Book.PublishedOn.Year())

	env.wg.Wait()
	assert.Empty(t, env.archive.objs, "no cover, nothing to archive")
}

func TestCreateBookValidation(t *testing.T) {
	env := newTestEnv()

	body := validBook()
	body.Title = "  "
	body.PublishedOn = "01/08/1965"
	_, err := env.svc.CreateBook(ctx, uuid.NewString(), body)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "published_on")
	assert.Empty(t, env.repo.books)
}

func TestCreateBookWithCover(t *testing.T) {
	env := newTestEnv()
	body := validBook()
	body.Cover = pngDataURI(t, 60, 80)

	userBook, err := env.svc.CreateBook(ctx, uuid.NewString(), body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(userBook.Book.Cover, "data:image/webp;base64,"))

	env.wg.Wait()
	require.Len(t, env.archive.objs, 1)
	obj := env.archive.objs[0]
	assert.Regexp(t, `^covers/[0-9a-f]{64}\.png$`, obj.key)
	assert.Equal(t, "image/png", obj.contentType)

	stored, err := env.repo.GetBook(ctx, userBook.BookID)
	require.NoError(t, err)
	assert.Equal(t, obj.key, stored.CoverSourceKey)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CoverCounter(metrics.CoverAccepted)))
}

func TestCreateBookArchiveFailureIsNotFatal(t *testing.T) {
	env := newTestEnv()
	env.archive.err = errors.New("bucket unavailable")
	body := validBook()
	body.Cover = pngDataURI(t, 10, 10)

	userBook, err := env.svc.CreateBook(ctx, uuid.NewString(), body)
	require.NoError(t, err)
	env.wg.Wait()

	stored, err := env.repo.GetBook(ctx, userBook.BookID)
	require.NoError(t, err)
	assert.Empty(t, stored.CoverSourceKey)
	assert.NotEmpty(t, stored.Cover)
}

func TestCreateBookRejectsBadCover(t *testing.T) {
	tests := []struct {
		name    string
		cover   string
		want    error
		cause   error
		outcome string
	}{
		{"malformed", "not-a-data-uri", ErrBadRequest, cover.ErrInvalidImageData, metrics.CoverInvalid},
		{"gif", "data:image/gif;base64,R0lGODlh", ErrUnsupportedMediaType, cover.ErrUnsupportedImageFormat, metrics.CoverUnsupported},
		{"oversize", "data:image/png;base64," + strings.Repeat("A", cover.MaxEncodedSize+1), ErrContentTooLarge, cover.ErrImageTooLarge, metrics.CoverTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			body := validBook()
			body.Cover = tt.cover
			_, err := env.svc.CreateBook(ctx, uuid.NewString(), body)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.cause)
			assert.Empty(t, env.repo.books)
			assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CoverCounter(tt.outcome)))
		})
	}
}

func TestIngestCover(t *testing.T) {
	env := newTestEnv()
	c, err := env.svc.IngestCover(pngDataURI(t, 300, 400))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.DataURI, "data:image/webp;base64,"))

	_, err = env.svc.IngestCover("data:image/png;base64,@@@")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestGetBookRating(t *testing.T) {
	env := newTestEnv()
	userBook, err := env.svc.CreateBook(ctx, uuid.NewString(), validBook())
	require.NoError(t, err)

	book, rating, err := env.svc.GetBook(ctx, userBook.BookID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, data.Rating{}, rating)

	for _, stars := range []int8{5, 3, 4} {
		_, err := env.svc.CreateReview(ctx, uuid.NewString(), userBook.BookID, stars, "review")
		require.NoError(t, err)
	}
	_, rating, err = env.svc.GetBook(ctx, userBook.BookID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rating.Total)
	assert.Equal(t, 4.0, rating.Average)

	_, _, err = env.svc.GetBook(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListBooksValidatesFilters(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.svc.ListBooks(ctx, "", "", data.Filters{Page: 0, PageSize: 20, Sort: "title", SortSafeList: []string{"title"}})
	assert.Contains(t, validationFields(t, err), "page")
}

func TestCollection(t *testing.T) {
	env := newTestEnv()
	owner, reader := uuid.NewString(), uuid.NewString()
	created, err := env.svc.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	_, err = env.svc.AddBookToCollection(ctx, owner, created.BookID)
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	_, err = env.svc.AddBookToCollection(ctx, reader, uuid.NewString())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	userBook, err := env.svc.AddBookToCollection(ctx, reader, created.BookID)
	require.NoError(t, err)
	assert.Equal(t, data.ProgressNotStarted, userBook.Progress)
	assert.Equal(t, "Dune", userBook.Book.Title)

	got, err := env.svc.GetUserBookForBook(ctx, reader, created.BookID)
	require.NoError(t, err)
	assert.Equal(t, userBook.ID, got.ID)

	_, err = env.svc.GetUserBookForBook(ctx, uuid.NewString(), created.BookID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateProgress(t *testing.T) {
	env := newTestEnv()
	owner := uuid.NewString()
	userBook, err := env.svc.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	half := data.ProgressHalf
	updated, err := env.svc.UpdateProgress(ctx, owner, userBook.ID, &half)
	require.NoError(t, err)
	assert.Equal(t, data.ProgressHalf, updated.Progress)
	assert.Equal(t, int32(2), updated.Version)

	_, err = env.svc.UpdateProgress(ctx, uuid.NewString(), userBook.ID, &half)
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = env.svc.UpdateProgress(ctx, owner, userBook.ID, nil)
	assert.Contains(t, validationFields(t, err), "progress")

	bogus := data.Progress("halfway")
	_, err = env.svc.UpdateProgress(ctx, owner, userBook.ID, &bogus)
	assert.Contains(t, validationFields(t, err), "progress")

	_, err = env.svc.UpdateProgress(ctx, owner, uuid.NewString(), &half)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteUserBook(t *testing.T) {
	env := newTestEnv()
	owner := uuid.NewString()
	userBook, err := env.svc.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteUserBook(ctx, uuid.NewString(), userBook.ID), ErrNotPermitted)
	require.NoError(t, env.svc.DeleteUserBook(ctx, owner, userBook.ID))
	assert.ErrorIs(t, env.svc.DeleteUserBook(ctx, owner, userBook.ID), ErrRecordNotFound)
}

func TestListUserBooks(t *testing.T) {
	env := newTestEnv()
	owner := uuid.NewString()
	_, err := env.svc.CreateBook(ctx, owner, validBook())
	require.NoError(t, err)

	filters := data.Filters{Page: 1, PageSize: 20, Sort: "title", SortSafeList: []string{"title"}}
	userBooks, _, err := env.svc.ListUserBooks(ctx, owner, "Not started", filters)
	require.NoError(t, err)
	assert.Len(t, userBooks, 1)

	_, _, err = env.svc.ListUserBooks(ctx, owner, "Done", filters)
	assert.Contains(t, validationFields(t, err), "progress")
}

func TestReviews(t *testing.T) {
	env := newTestEnv()
	author := uuid.NewString()
	created, err := env.svc.CreateBook(ctx, uuid.NewString(), validBook())
	require.NoError(t, err)
	bookID := created.BookID

	_, err = env.svc.CreateReview(ctx, author, bookID, 6, "too many stars")
	assert.Contains(t, validationFields(t, err), "rating")

	_, err = env.svc.CreateReview(ctx, author, bookID, 3, "   ")
	assert.Contains(t, validationFields(t, err), "comment")

	_, err = env.svc.CreateReview(ctx, author, uuid.NewString(), 3, "no such book")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	review, err := env.svc.CreateReview(ctx, author, bookID, 2, "Slow start.")
	require.NoError(t, err)
	assert.Equal(t, int8(2), review.Rating)

	_, err = env.svc.CreateReview(ctx, author, bookID, 5, "Changed my mind.")
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	got, err := env.svc.GetReview(ctx, bookID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "Slow start.", got.Comment)

	_, err = env.svc.GetReview(ctx, uuid.NewString(), review.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.ErrorIs(t, env.svc.DeleteReview(ctx, uuid.NewString(), bookID, review.ID), ErrNotPermitted)
	require.NoError(t, env.svc.DeleteReview(ctx, author, bookID, review.ID))
	_, err = env.svc.GetReview(ctx, bookID, review.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListReviewsRatesWholeBook(t *testing.T) {
	env := newTestEnv()
	created, err := env.svc.CreateBook(ctx, uuid.NewString(), validBook())
	require.NoError(t, err)
	for _, stars := range []int8{5, 4, 4, 1} {
		_, err := env.svc.CreateReview(ctx, uuid.NewString(), created.BookID, stars, "ok")
		require.NoError(t, err)
	}

	filters := data.Filters{Page: 1, PageSize: 2, Sort: "-created_at", SortSafeList: []string{"-created_at"}}
	rating, reviews, metadata, err := env.svc.ListReviews(ctx, created.BookID, filters)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, 4, metadata.TotalRecords)
	assert.Equal(t, int64(4), rating.Total)
	assert.Equal(t, 3.5, rating.Average)
	assert.Equal(t, int64(2), rating.FourStars)

	_, _, _, err = env.svc.ListReviews(ctx, uuid.NewString(), filters)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRegisterAndActivateUser(t *testing.T) {
	env := newTestEnv()

	user, err := env.svc.RegisterUser(ctx, "Alice Smith", "alice@example.com", "pa55word")
	require.NoError(t, err)
	assert.False(t, user.Activated)

	env.wg.Wait()
	require.Len(t, env.mailer.sent, 1)
	mail := env.mailer.sent[0]
	assert.Equal(t, "alice@example.com", mail.recipient)
	assert.Equal(t, "user_welcome.tmpl", mail.template)
	assert.Equal(t, "Alice", mail.data["userName"])

	_, err = env.svc.RegisterUser(ctx, "Alice Again", "alice@example.com", "pa55word")
	assert.Equal(t, "a user with this email address already exists", validationFields(t, err)["email"])

	_, err = env.svc.ActivateUser(ctx, strings.Repeat("Z", 26))
	assert.Contains(t, validationFields(t, err), "token")

	activated, err := env.svc.ActivateUser(ctx, mail.data["activationToken"])
	require.NoError(t, err)
	assert.True(t, activated.Activated)

	_, err = env.svc.ActivateUser(ctx, mail.data["activationToken"])
	assert.Contains(t, validationFields(t, err), "token", "activation tokens are single use")

	err = env.svc.CreateActivationToken(ctx, "alice@example.com")
	assert.Contains(t, validationFields(t, err), "email")
}

func TestAuthenticationToken(t *testing.T) {
	env := newTestEnv()
	user, err := env.svc.RegisterUser(ctx, "Bob", "bob@example.com", "correct horse")
	require.NoError(t, err)

	_, err = env.svc.CreateAuthenticationToken(ctx, "bob@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.CreateAuthenticationToken(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := env.svc.CreateAuthenticationToken(ctx, "bob@example.com", "correct horse")
	require.NoError(t, err)

	got, err := env.svc.GetUserForToken(ctx, data.ScopeAuthentication, token.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, env.svc.DeleteAuthenticationToken(ctx, user.ID))
	_, err = env.svc.GetUserForToken(ctx, data.ScopeAuthentication, token.Plaintext)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	env.wg.Wait()
}

func TestUpdateAndDeleteUser(t *testing.T) {
	env := newTestEnv()
	user, err := env.svc.RegisterUser(ctx, "Carol", "carol@example.com", "pa55word")
	require.NoError(t, err)

	empty := ""
	_, err = env.svc.UpdateUser(ctx, user.ID, &empty)
	assert.Contains(t, validationFields(t, err), "name")

	name := "Caroline"
	updated, err := env.svc.UpdateUser(ctx, user.ID, &name)
	require.NoError(t, err)
	assert.Equal(t, "Caroline", updated.Name)

	require.NoError(t, env.svc.DeleteUser(ctx, user.ID))
	_, err = env.svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	env.wg.Wait()
}
