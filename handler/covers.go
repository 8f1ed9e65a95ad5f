package handler

import (
	"net/http"

	"github.com/emzola/bookshelf/data/dto"
)

// CreateCover godoc
// @Summary Normalize a cover image
// @Description This endpoint validates a PNG or JPEG cover given as a base64 data URI and returns it letterboxed to 300x400 as a WebP data URI
// @Tags covers
// @Accept  json
// @Produce json
// @Param token header string true "Bearer token"
// @Param body body dto.CreateCoverRequestBody true "JSON payload carrying the image data URI"
// @Success 200
// @Failure 400
// @Failure 413
// @Failure 415
// @Failure 500
// @Router /v1/covers [post]
func (h *Handler) createCoverHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.CreateCoverRequestBody
	err := h.decodeJSON(w, r, &requestBody, maxCoverBodyBytes)
	if err != nil {
		h.decodeErrorResponse(w, r, err)
		return
	}
	c, err := h.service.IngestCover(requestBody.Image)
	if err != nil {
		if !h.coverErrorResponse(w, r, err) {
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"cover": c.DataURI}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
