package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/service"
)

// AddBookToCollection godoc
// @Summary Add a book to the user's collection
// @Description This endpoint adds an existing book to the authenticated user's collection with progress "Not started"
// @Tags collection
// @Produce json
// @Param token header string true "Bearer token"
// @Param bookId path string true "ID of book to add"
// @Success 201 {object} data.UserBook
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /v1/books/{bookId}/collection [post]
func (h *Handler) addBookToCollectionHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	userBook, err := h.service.AddBookToCollection(r.Context(), user.ID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrDuplicateRecord):
			h.recordAlreadyExistsResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/books/%s/collection", bookID))
	err = h.encodeJSON(w, http.StatusCreated, envelope{"user_book": userBook}, headers)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowUserBookForBook godoc
// @Summary Show the user's collection entry for a book
// @Tags collection
// @Produce json
// @Param token header string true "Bearer token"
// @Param bookId path string true "ID of book"
// @Success 200 {object} data.UserBook
// @Failure 404
// @Failure 500
// @Router /v1/books/{bookId}/collection [get]
func (h *Handler) showUserBookForBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	userBook, err := h.service.GetUserBookForBook(r.Context(), user.ID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user_book": userBook}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateProgress godoc
// @Summary Update reading progress
// @Description This endpoint sets the reading progress of a collection entry. Progress is one of "Not started", "25%", "50%", "75%", "Completed".
// @Tags collection
// @Accept  json
// @Produce json
// @Param token header string true "Bearer token"
// @Param userBookId path string true "ID of collection entry"
// @Param body body dto.UpdateProgressRequestBody true "JSON payload carrying the new progress"
// @Success 200 {object} data.UserBook
// @Failure 400
// @Failure 403
// @Failure 404
// @Failure 409
// @Failure 422
// @Failure 500
// @Router /v1/userbooks/{userBookId} [patch]
func (h *Handler) updateProgressHandler(w http.ResponseWriter, r *http.Request) {
	userBookID, err := h.readIDParam(r, "userBookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.UpdateProgressRequestBody
	err = h.decodeJSON(w, r, &requestBody, maxBodyBytes)
	if err != nil {
		if errors.Is(err, data.ErrInvalidProgress) {
			h.failedValidationResponse(w, r, &service.ValidationError{Errors: map[string]string{"progress": err.Error()}})
			return
		}
		h.decodeErrorResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	userBook, err := h.service.UpdateProgress(r.Context(), user.ID, userBookID, requestBody.Progress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrNotPermitted):
			h.notPermittedResponse(w, r)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user_book": userBook}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteUserBook godoc
// @Summary Remove a book from the user's collection
// @Tags collection
// @Produce json
// @Param token header string true "Bearer token"
// @Param userBookId path string true "ID of collection entry"
// @Success 200
// @Failure 403
// @Failure 404
// @Failure 500
// @Router /v1/userbooks/{userBookId} [delete]
func (h *Handler) deleteUserBookHandler(w http.ResponseWriter, r *http.Request) {
	userBookID, err := h.readIDParam(r, "userBookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.DeleteUserBook(r.Context(), user.ID, userBookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrNotPermitted):
			h.notPermittedResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	h.forgetOwner("userbook", userBookID)
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "book removed from collection successfully"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ListUserBooks godoc
// @Summary List the user's collection
// @Description This endpoint lists the books in the authenticated user's collection, sorted by title by default
// @Tags users
// @Produce json
// @Param token header string true "Bearer token"
// @Param progress query string false "Filter by reading progress"
// @Param page query int false "Query string param for pagination (min 1)"
// @Param page_size query int false "Query string param for pagination (max 100)"
// @Param sort query string false "Sort by ascending or descending order. Asc: title, author, created_at. Desc: -title, -author, -created_at"
// @Success 200 {array} data.UserBook
// @Failure 422
// @Failure 500
// @Router /v1/users/books [get]
func (h *Handler) listUserBooksHandler(w http.ResponseWriter, r *http.Request) {
	var qsInput dto.QsListUserBooks
	v := validator.New()
	qs := r.URL.Query()
	qsInput.Progress = h.readString(qs, "progress", "")
	qsInput.Filters.Page = h.readInt(qs, "page", 1, v)
	qsInput.Filters.PageSize = h.readInt(qs, "page_size", 10, v)
	qsInput.Filters.Sort = h.readString(qs, "sort", "title")
	qsInput.Filters.SortSafeList = sortSafeList("title", "author", "created_at")
	if !v.Valid() {
		h.failedValidationResponse(w, r, &service.ValidationError{Errors: v.Errors})
		return
	}
	user := h.contextGetUser(r)
	userBooks, metadata, err := h.service.ListUserBooks(r.Context(), user.ID, qsInput.Progress, qsInput.Filters)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user_books": userBooks, "metadata": metadata}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
