package books

import "time"

// Book is a catalog record owned by exactly one user. The image lives in
// external object storage; only its URL is persisted.
type Book struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	PublishYear int       `json:"publishYear"`
	CreatedBy   int64     `json:"createdBy"`
	ImageURL    string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
