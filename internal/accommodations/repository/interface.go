package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNoChange is returned by a Modify callback to leave the row as it is.
var ErrNoChange = errors.New("no change")

// Accommodation is a bookable listing.
type Accommodation struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Location    string    `db:"location"`
	ImageURL    *string   `db:"image_url"`
	Amenities   []string  `db:"amenities"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// HasAmenity reports whether amenity is listed exactly.
func (a Accommodation) HasAmenity(amenity string) bool {
	for _, existing := range a.Amenities {
		if existing == amenity {
			return true
		}
	}
	return false
}

// Saver is a user who saved an accommodation to their list.
type Saver struct {
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	Email      string    `db:"email"`
	Role       string    `db:"role"`
	SelectedAt time.Time `db:"selected_at"`
}

// CreateParams contains data for creating an accommodation.
type CreateParams struct {
	Title       string
	Description string
	Price       float64
	Location    string
	ImageURL    *string
	Amenities   []string
}

// AccommodationRepository defines the persistence operations of the
// accommodation context.
type AccommodationRepository interface {
	Create(ctx context.Context, params CreateParams) (Accommodation, error)
	GetByID(ctx context.Context, id int64) (Accommodation, error)
	ListAll(ctx context.Context) ([]Accommodation, error)
	ListPage(ctx context.Context, limit, offset int) ([]Accommodation, error)
	Search(ctx context.Context, term string) ([]Accommodation, error)
	ListByLocation(ctx context.Context, location string) ([]Accommodation, error)
	ListByPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]Accommodation, error)
	ListByAmenity(ctx context.Context, amenity string) ([]Accommodation, error)
	// Modify applies a read-modify-write change to accommodation id atomically.
	Modify(ctx context.Context, id int64, apply func(*Accommodation) error) (Accommodation, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListSavers(ctx context.Context, id int64) ([]Saver, error)
}

// Ensure Repository implements AccommodationRepository
var _ AccommodationRepository = (*Repository)(nil)
