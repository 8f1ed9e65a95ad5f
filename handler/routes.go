package handler

import (
	"net/http"

	_ "github.com/emzola/bookshelf/docs"
	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Routes returns the application router wrapped in its middleware chain.
func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	router.HandlerFunc(http.MethodPost, "/v1/covers", h.requireActivatedUser(h.createCoverHandler))

	router.HandlerFunc(http.MethodGet, "/v1/books", h.requireActivatedUser(h.listBooksHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books", h.requireActivatedUser(h.createBookHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:bookId", h.requireActivatedUser(h.showBookHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:bookId/collection", h.requireActivatedUser(h.addBookToCollectionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:bookId/collection", h.requireActivatedUser(h.showUserBookForBookHandler))

	router.HandlerFunc(http.MethodPatch, "/v1/userbooks/:userBookId", h.requireUserBookOwner(h.updateProgressHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/userbooks/:userBookId", h.requireUserBookOwner(h.deleteUserBookHandler))

	router.HandlerFunc(http.MethodGet, "/v1/books/:bookId/reviews", h.requireActivatedUser(h.listReviewsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:bookId/reviews", h.requireActivatedUser(h.createReviewHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:bookId/reviews/:reviewId", h.requireActivatedUser(h.showReviewHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/books/:bookId/reviews/:reviewId", h.requireReviewOwner(h.deleteReviewHandler))

	router.HandlerFunc(http.MethodPost, "/v1/users", h.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activated", h.activateUserHandler)

	router.HandlerFunc(http.MethodGet, "/v1/users/profile", h.requireActivatedUser(h.showUserHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/users/profile", h.requireActivatedUser(h.updateUserHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/users/profile", h.requireActivatedUser(h.deleteUserHandler))

	router.HandlerFunc(http.MethodGet, "/v1/users/books", h.requireActivatedUser(h.listUserBooksHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/reviews", h.requireActivatedUser(h.listUserReviewsHandler))

	router.HandlerFunc(http.MethodPost, "/v1/tokens/activation", h.createActivationTokenHandler)
	router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication", h.createAuthenticationTokenHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/tokens/authentication", h.requireAuthenticatedUser(h.deleteAuthenticationTokenHandler))

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)

	if h.metrics != nil {
		router.HandlerFunc(http.MethodGet, "/metrics", h.basicAuth(h.metrics.Handler().ServeHTTP))
	}

	// Swagger routes
	router.HandlerFunc(http.MethodGet, "/spec", h.handleSwaggerFile())
	router.HandlerFunc(http.MethodGet, "/docs/*any", httpSwagger.Handler(httpSwagger.URL("/spec")))

	return h.recordMetrics(h.recoverPanic(h.enableCORS(h.rateLimit(h.authenticate(router)))))
}
