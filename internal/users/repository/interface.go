package repository

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrAlreadySaved         = errors.New("accommodation already saved")
	ErrNotSaved             = errors.New("accommodation not saved")
	ErrAccommodationMissing = errors.New("accommodation does not exist")
)

// Roles stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SavedAccommodation is an accommodation as seen from a user's saved list.
type SavedAccommodation struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Location    string    `db:"location"`
	ImageURL    *string   `db:"image_url"`
	Amenities   []string  `db:"amenities"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	SelectedAt  time.Time `db:"selected_at"`
}

// CreateParams contains data for creating a user.
type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// UserRepository defines the persistence operations of the user context.
type UserRepository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role string) (User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	// UsernameExists and EmailExists ignore the row with id excludeID; pass 0
	// to consider every user.
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)

	ListAccommodations(ctx context.Context, userID int64) ([]SavedAccommodation, error)
	AddAccommodation(ctx context.Context, userID, accommodationID int64) error
	RemoveAccommodation(ctx context.Context, userID, accommodationID int64) error
	HasAccommodation(ctx context.Context, userID, accommodationID int64) (bool, error)
}

// Ensure Repository implements UserRepository
var _ UserRepository = (*Repository)(nil)
