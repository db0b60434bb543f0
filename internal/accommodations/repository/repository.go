package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staybook/platform/apperr"
	"staybook/platform/db"

	"github.com/jackc/pgx/v5"
)

// MsgNotFound is the client-facing message for a missing accommodation.
const MsgNotFound = "Accommodation not found"

const selectColumns = `id, title, description, price, location, image_url, amenities, created_at, updated_at`

const newestFirst = ` ORDER BY created_at DESC, id DESC`

const (
	insertQuery = `
		INSERT INTO accommodations (title, description, price, location, image_url, amenities)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + selectColumns

	getByIDQuery = `SELECT ` + selectColumns + ` FROM accommodations WHERE id = $1`

	lockByIDQuery = getByIDQuery + ` FOR UPDATE`

	listAllQuery = `SELECT ` + selectColumns + ` FROM accommodations` + newestFirst

	listPageQuery = `SELECT ` + selectColumns + ` FROM accommodations` + newestFirst + ` LIMIT $1 OFFSET $2`

	searchQuery = `SELECT ` + selectColumns + ` FROM accommodations
		WHERE title ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\'` + newestFirst

	listByLocationQuery = `SELECT ` + selectColumns + ` FROM accommodations
		WHERE location ILIKE $1 ESCAPE '\'` + newestFirst

	listByPriceRangeQuery = `SELECT ` + selectColumns + ` FROM accommodations
		WHERE price BETWEEN $1 AND $2
		ORDER BY price ASC, id ASC`

	listByAmenityQuery = `SELECT ` + selectColumns + ` FROM accommodations
		WHERE $1 = ANY(amenities)` + newestFirst

	updateQuery = `
		UPDATE accommodations
		SET title = $2, description = $3, price = $4, location = $5, image_url = $6, amenities = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + selectColumns

	deleteQuery = `DELETE FROM accommodations WHERE id = $1`

	countQuery = `SELECT COUNT(*) FROM accommodations`

	existsQuery = `SELECT EXISTS (SELECT 1 FROM accommodations WHERE id = $1)`

	listSaversQuery = `
		SELECT u.id, u.username, u.email, u.role, ua.selected_at
		FROM user_accommodations ua
		JOIN users u ON u.id = ua.user_id
		WHERE ua.accommodation_id = $1
		ORDER BY ua.selected_at DESC, u.id DESC`
)

// Repository persists accommodations in postgres.
type Repository struct {
	db db.TxBeginner
}

// New creates a Repository on top of a pool or mock.
func New(conn db.TxBeginner) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Accommodation, error) {
	a, err := scanAccommodation(r.db.QueryRow(ctx, insertQuery,
		params.Title,
		params.Description,
		params.Price,
		params.Location,
		params.ImageURL,
		nonNil(params.Amenities),
	))
	if err != nil {
		return Accommodation{}, db.Failure("insert accommodation", err)
	}
	return a, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Accommodation, error) {
	a, err := scanAccommodation(r.db.QueryRow(ctx, getByIDQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Accommodation{}, apperr.NotFound(MsgNotFound)
	}
	if err != nil {
		return Accommodation{}, db.Failure(fmt.Sprintf("get accommodation %d", id), err)
	}
	return a, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]Accommodation, error) {
	return r.list(ctx, "list accommodations", listAllQuery)
}

func (r *Repository) ListPage(ctx context.Context, limit, offset int) ([]Accommodation, error) {
	return r.list(ctx, "list accommodation page", listPageQuery, limit, offset)
}

// Search matches term case-insensitively against title and description.
func (r *Repository) Search(ctx context.Context, term string) ([]Accommodation, error) {
	return r.list(ctx, "search accommodations", searchQuery, containsPattern(term))
}

func (r *Repository) ListByLocation(ctx context.Context, location string) ([]Accommodation, error) {
	return r.list(ctx, "list accommodations by location", listByLocationQuery, containsPattern(location))
}

func (r *Repository) ListByPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]Accommodation, error) {
	return r.list(ctx, "list accommodations by price", listByPriceRangeQuery, minPrice, maxPrice)
}

func (r *Repository) ListByAmenity(ctx context.Context, amenity string) ([]Accommodation, error) {
	return r.list(ctx, "list accommodations by amenity", listByAmenityQuery, amenity)
}

// Modify locks row id, hands it to apply and writes the result back in one
// transaction, so concurrent read-modify-write updates cannot interleave.
// When apply returns ErrNoChange the row is returned unchanged.
func (r *Repository) Modify(ctx context.Context, id int64, apply func(*Accommodation) error) (Accommodation, error) {
	var out Accommodation
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanAccommodation(tx.QueryRow(ctx, lockByIDQuery, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(MsgNotFound)
		}
		if err != nil {
			return db.Failure(fmt.Sprintf("lock accommodation %d", id), err)
		}

		if err := apply(&current); err != nil {
			if errors.Is(err, ErrNoChange) {
				out = current
				return nil
			}
			return err
		}

		out, err = scanAccommodation(tx.QueryRow(ctx, updateQuery,
			id,
			current.Title,
			current.Description,
			current.Price,
			current.Location,
			current.ImageURL,
			nonNil(current.Amenities),
		))
		if err != nil {
			return db.Failure(fmt.Sprintf("update accommodation %d", id), err)
		}
		return nil
	})
	if err != nil {
		return Accommodation{}, err
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteQuery, id)
	if err != nil {
		return db.Failure(fmt.Sprintf("delete accommodation %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(MsgNotFound)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countQuery).Scan(&n); err != nil {
		return 0, db.Failure("count accommodations", err)
	}
	return n, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return false, db.Failure(fmt.Sprintf("accommodation %d exists", id), err)
	}
	return exists, nil
}

// ListSavers returns the users that saved accommodation id, most recent first.
func (r *Repository) ListSavers(ctx context.Context, id int64) ([]Saver, error) {
	rows, err := r.db.Query(ctx, listSaversQuery, id)
	if err != nil {
		return nil, db.Failure(fmt.Sprintf("list savers of %d", id), err)
	}
	savers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Saver, error) {
		var s Saver
		err := row.Scan(&s.UserID, &s.Username, &s.Email, &s.Role, &s.SelectedAt)
		return s, err
	})
	if err != nil {
		return nil, db.Failure(fmt.Sprintf("list savers of %d", id), err)
	}
	return savers, nil
}

func (r *Repository) list(ctx context.Context, op, query string, args ...any) ([]Accommodation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Failure(op, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Accommodation, error) {
		return scanAccommodation(row)
	})
	if err != nil {
		return nil, db.Failure(op, err)
	}
	return items, nil
}

func scanAccommodation(row pgx.Row) (Accommodation, error) {
	var a Accommodation
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Price,
		&a.Location,
		&a.ImageURL,
		&a.Amenities,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if a.Amenities == nil {
		a.Amenities = []string{}
	}
	return a, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// wildcards in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
