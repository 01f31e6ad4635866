package books

// CreateBookRequest carries the multipart fields of POST /books.
// The image payload is mandatory: a book cannot be created without a cover.
type CreateBookRequest struct {
	Title       string `validate:"required,max=300"`
	Author      string `validate:"required,max=200"`
	PublishYear int    `validate:"required"`
	Image       []byte `validate:"required"`
	ContentType string
}

// UpdateBookRequest updates title, author and year. Image and owner are
// immutable through this path.
type UpdateBookRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Author      string `json:"author" validate:"required,max=200"`
	PublishYear int    `json:"publishYear" validate:"required"`
}
