package dto

// CreateCoverRequestBody defines the request body for IngestCover service.
type CreateCoverRequestBody struct {
	Image string `json:"image"`
}
