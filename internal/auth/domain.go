package auth

import "time"

// Roles stored on the user record. The flag is persisted but no endpoint
// currently branches on it.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. The password hash never serializes.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Confirmed    bool      `json:"isConfirmed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
