package books

import (
	"context"
	"fmt"

	"github.com/shelfline/shelfline/internal/platform/httpx"
)

// ImageStore uploads an image payload and returns a durable URL.
// The call blocks; a failure aborts the surrounding operation.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// Service wraps owner-scoped catalog rules.
type Service struct {
	repo   Repository
	images ImageStore
}

// NewService constructs a new Service.
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

// Create uploads the cover image first and persists the book with the
// returned URL. An upload failure aborts the whole create; no partial
// book is written, so there is nothing to roll back.
func (s *Service) Create(ctx context.Context, ownerID int64, req CreateBookRequest) (*Book, error) {
	url, err := s.images.Upload(ctx, req.Image, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	book, err := s.repo.Create(ctx, Book{
		Title:       req.Title,
		Author:      req.Author,
		PublishYear: req.PublishYear,
		CreatedBy:   ownerID,
		ImageURL:    url,
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// List returns the owner's books. An empty shelf answers not-found rather
// than an empty array; existing clients depend on that contract.
func (s *Service) List(ctx context.Context, ownerID int64) ([]Book, error) {
	result, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no books found", httpx.ErrNotFound)
	}
	return result, nil
}

// Get returns one owned book.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Book, error) {
	return s.repo.GetOwned(ctx, ownerID, id)
}

// Update changes title, author and publish year of an owned book.
func (s *Service) Update(ctx context.Context, ownerID, id int64, req UpdateBookRequest) (*Book, error) {
	return s.repo.UpdateOwned(ctx, ownerID, id, req.Title, req.Author, req.PublishYear)
}

// Delete removes an owned book and returns the deleted record.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) (*Book, error) {
	return s.repo.DeleteOwned(ctx, ownerID, id)
}
