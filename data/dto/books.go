package dto

import "github.com/emzola/bookshelf/data"

// CreateBookRequestBody defines the request body for CreateBook service. Cover is an
// optional data URI; PublishedOn uses the YYYY-MM-DD layout.
type CreateBookRequestBody struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on"`
	Cover       string `json:"cover"`
}

// QsListBooks defines the query strings used for listing books.
type QsListBooks struct {
	Search  string
	Author  string
	Filters data.Filters
}

// QsListUserBooks defines query strings for ListUserBooks service.
type QsListUserBooks struct {
	Progress string
	Filters  data.Filters
}

// UpdateProgressRequestBody defines the request body for UpdateProgress service.
type UpdateProgressRequestBody struct {
	Progress *data.Progress `json:"progress"`
}
