package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfline/shelfline/internal/platform/httpx"
)

// Repository defines persistence operations for the credential store.
type Repository interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	SetConfirmed(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = "id, username, email, password_hash, role, confirmed, created_at, updated_at"

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByUsernameOrEmail fetches a user matching either identifier.
func (r *PGRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = $1 OR email = $2", userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, username, email))
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// Create inserts an unconfirmed user. Unique violations on username or
// email surface as httpx.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (username, email, password_hash, role, confirmed)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING %s`, userColumns)
	user, err := r.scanUser(r.pool.QueryRow(ctx, query, username, email, passwordHash, RoleUser))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: username or email already exists", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

// SetConfirmed flips the confirmation flag. The flag only ever moves from
// false to true, so repeating the update is harmless.
func (r *PGRepository) SetConfirmed(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET confirmed = TRUE, updated_at = NOW() WHERE id = $1", id)
	return err
}

var _ Repository = (*PGRepository)(nil)
