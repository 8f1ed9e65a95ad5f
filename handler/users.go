package handler

import (
	"errors"
	"net/http"

	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/service"
)

// RegisterUser godoc
// @Summary Register a new user
// @Description This endpoint registers a new user and mails an activation token
// @Tags users
// @Accept  json
// @Produce json
// @Param body body dto.RegisterUserRequestBody true "JSON payload required to register a user"
// @Success 202 {object} data.User
// @Failure 400
// @Failure 422
// @Failure 500
// @Router /v1/users [post]
func (h *Handler) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.RegisterUserRequestBody
	err := h.decodeJSON(w, r, &requestBody, maxBodyBytes)
	if err != nil {
		h.decodeErrorResponse(w, r, err)
		return
	}
	user, err := h.service.RegisterUser(r.Context(), requestBody.Name, requestBody.Email, requestBody.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusAccepted, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ActivateUser godoc
// @Summary Activate a user
// @Tags users
// @Accept  json
// @Produce json
// @Param body body dto.ActivateUserRequestBody true "JSON payload carrying the activation token"
// @Success 200 {object} data.User
// @Failure 400
// @Failure 409
// @Failure 422
// @Failure 500
// @Router /v1/users/activated [put]
func (h *Handler) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.ActivateUserRequestBody
	err := h.decodeJSON(w, r, &requestBody, maxBodyBytes)
	if err != nil {
		h.decodeErrorResponse(w, r, err)
		return
	}
	user, err := h.service.ActivateUser(r.Context(), requestBody.TokenPlaintext)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowUser godoc
// @Summary Show the current user
// @Tags users
// @Produce json
// @Param token header string true "Bearer token"
// @Success 200 {object} data.User
// @Failure 404
// @Failure 500
// @Router /v1/users/profile [get]
func (h *Handler) showUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.contextGetUser(r).ID
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateUser godoc
// @Summary Update the current user's name
// @Tags users
// @Accept  json
// @Produce json
// @Param token header string true "Bearer token"
// @Param body body dto.UpdateUserRequestBody true "JSON payload carrying the new name"
// @Success 200 {object} data.User
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 422
// @Failure 500
// @Router /v1/users/profile [patch]
func (h *Handler) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.UpdateUserRequestBody
	err := h.decodeJSON(w, r, &requestBody, maxBodyBytes)
	if err != nil {
		h.decodeErrorResponse(w, r, err)
		return
	}
	userID := h.contextGetUser(r).ID
	user, err := h.service.UpdateUser(r.Context(), userID, requestBody.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteUser godoc
// @Summary Delete the current user's account
// @Description This endpoint deletes the account along with its collection and reviews
// @Tags users
// @Produce json
// @Param token header string true "Bearer token"
// @Success 200
// @Failure 404
// @Failure 500
// @Router /v1/users/profile [delete]
func (h *Handler) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.contextGetUser(r).ID
	err := h.service.DeleteUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "user account deleted successfully"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
