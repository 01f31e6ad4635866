package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfline/shelfline/internal/platform/httpx"
)

// Repository defines persistence operations for books. Every read and write
// is filtered by the owning user: a book belonging to someone else is
// indistinguishable from one that does not exist.
type Repository interface {
	Create(ctx context.Context, book Book) (*Book, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Book, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*Book, error)
	UpdateOwned(ctx context.Context, ownerID, id int64, title, author string, publishYear int) (*Book, error)
	DeleteOwned(ctx context.Context, ownerID, id int64) (*Book, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const bookColumns = "id, title, author, publish_year, created_by, image_url, created_at, updated_at"

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.PublishYear, &b.CreatedBy, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a book for its owner.
func (r *PGRepository) Create(ctx context.Context, book Book) (*Book, error) {
	query := fmt.Sprintf(`
		INSERT INTO books (title, author, publish_year, created_by, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, bookColumns)
	return scanBook(r.pool.QueryRow(ctx, query,
		book.Title, book.Author, book.PublishYear, book.CreatedBy, book.ImageURL))
}

// ListByOwner returns all books created by the owner, newest first.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE created_by = $1 ORDER BY created_at DESC, id DESC", bookColumns)
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.PublishYear, &b.CreatedBy, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// GetOwned fetches one book if it exists and belongs to the owner.
func (r *PGRepository) GetOwned(ctx context.Context, ownerID, id int64) (*Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE id = $1 AND created_by = $2", bookColumns)
	return scanBook(r.pool.QueryRow(ctx, query, id, ownerID))
}

// UpdateOwned is an ownership-filtered conditional update of the mutable
// fields. No matching owned row surfaces as httpx.ErrNotFound.
func (r *PGRepository) UpdateOwned(ctx context.Context, ownerID, id int64, title, author string, publishYear int) (*Book, error) {
	query := fmt.Sprintf(`
		UPDATE books
		SET title = $1, author = $2, publish_year = $3, updated_at = NOW()
		WHERE id = $4 AND created_by = $5
		RETURNING %s`, bookColumns)
	return scanBook(r.pool.QueryRow(ctx, query, title, author, publishYear, id, ownerID))
}

// DeleteOwned removes an owned book and returns the deleted record.
func (r *PGRepository) DeleteOwned(ctx context.Context, ownerID, id int64) (*Book, error) {
	query := fmt.Sprintf("DELETE FROM books WHERE id = $1 AND created_by = $2 RETURNING %s", bookColumns)
	return scanBook(r.pool.QueryRow(ctx, query, id, ownerID))
}

var _ Repository = (*PGRepository)(nil)
