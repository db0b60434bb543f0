package repository

import (
	"context"
	"errors"
	"fmt"

	"staybook/platform/db"

	"github.com/jackc/pgx/v5"
)

// Constraint names from the users and user_accommodations migrations.
const (
	constraintEmail         = "users_email_key"
	constraintUsername      = "users_username_key"
	constraintSavedPair     = "user_accommodations_pkey"
	constraintSavedUserFKey = "user_accommodations_user_id_fkey"
)

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

const (
	insertUserQuery = `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	getByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	listUsersQuery  = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	updateProfileQuery = `
		UPDATE users SET username = $2, email = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	updatePasswordQuery = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	updateRoleQuery = `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	deleteUserQuery = `DELETE FROM users WHERE id = $1`
	userExistsQuery = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	usernameExistsQuery = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	emailExistsQuery    = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	listSavedQuery = `
		SELECT a.id, a.title, a.description, a.price, a.location, a.image_url, a.amenities,
		       a.created_at, a.updated_at, ua.selected_at
		FROM user_accommodations ua
		JOIN accommodations a ON a.id = ua.accommodation_id
		WHERE ua.user_id = $1
		ORDER BY ua.selected_at DESC, a.id DESC`

	insertSavedQuery = `INSERT INTO user_accommodations (user_id, accommodation_id) VALUES ($1, $2)`
	deleteSavedQuery = `DELETE FROM user_accommodations WHERE user_id = $1 AND accommodation_id = $2`
	hasSavedQuery    = `SELECT EXISTS (SELECT 1 FROM user_accommodations WHERE user_id = $1 AND accommodation_id = $2)`
)

// Repository persists users and their saved accommodations in postgres.
type Repository struct {
	db db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, insertUserQuery, params.Username, params.Email, params.PasswordHash, params.Role))
	if err != nil {
		if mapped := duplicateUser(err); mapped != nil {
			return User{}, mapped
		}
		return User{}, db.Failure("insert user", err)
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, fmt.Sprintf("get user %d", id), getByIDQuery, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, "get user by email", getByEmailQuery, email)
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, listUsersQuery)
	if err != nil {
		return nil, db.Failure("list users", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, db.Failure("list users", err)
	}
	return users, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id int64, username, email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, updateProfileQuery, id, username, email))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return User{}, ErrNotFound
	case err != nil:
		if mapped := duplicateUser(err); mapped != nil {
			return User{}, mapped
		}
		return User{}, db.Failure(fmt.Sprintf("update user %d", id), err)
	}
	return u, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, updatePasswordQuery, id, passwordHash)
	if err != nil {
		return db.Failure(fmt.Sprintf("update password of %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateRole(ctx context.Context, id int64, role string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, updateRoleQuery, id, role))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, db.Failure(fmt.Sprintf("update role of %d", id), err)
	}
	return u, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		return db.Failure(fmt.Sprintf("delete user %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, fmt.Sprintf("user %d exists", id), userExistsQuery, id)
}

func (r *Repository) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "username exists", usernameExistsQuery, username, excludeID)
}

func (r *Repository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email exists", emailExistsQuery, email, excludeID)
}

// ListAccommodations returns the accommodations userID saved, most recent first.
func (r *Repository) ListAccommodations(ctx context.Context, userID int64) ([]SavedAccommodation, error) {
	rows, err := r.db.Query(ctx, listSavedQuery, userID)
	if err != nil {
		return nil, db.Failure(fmt.Sprintf("list saved accommodations of %d", userID), err)
	}
	saved, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SavedAccommodation, error) {
		var s SavedAccommodation
		err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Price, &s.Location, &s.ImageURL,
			&s.Amenities, &s.CreatedAt, &s.UpdatedAt, &s.SelectedAt)
		if s.Amenities == nil {
			s.Amenities = []string{}
		}
		return s, err
	})
	if err != nil {
		return nil, db.Failure(fmt.Sprintf("list saved accommodations of %d", userID), err)
	}
	return saved, nil
}

// AddAccommodation saves a pair. The primary key on (user_id, accommodation_id)
// rejects a second save even when two requests race past the service check.
func (r *Repository) AddAccommodation(ctx context.Context, userID, accommodationID int64) error {
	_, err := r.db.Exec(ctx, insertSavedQuery, userID, accommodationID)
	if err == nil {
		return nil
	}
	if constraint, ok := db.UniqueViolation(err); ok && constraint == constraintSavedPair {
		return ErrAlreadySaved
	}
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		if constraint == constraintSavedUserFKey {
			return ErrNotFound
		}
		return ErrAccommodationMissing
	}
	return db.Failure(fmt.Sprintf("save accommodation %d for %d", accommodationID, userID), err)
}

func (r *Repository) RemoveAccommodation(ctx context.Context, userID, accommodationID int64) error {
	tag, err := r.db.Exec(ctx, deleteSavedQuery, userID, accommodationID)
	if err != nil {
		return db.Failure(fmt.Sprintf("remove accommodation %d for %d", accommodationID, userID), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotSaved
	}
	return nil
}

func (r *Repository) HasAccommodation(ctx context.Context, userID, accommodationID int64) (bool, error) {
	return r.exists(ctx, "has saved accommodation", hasSavedQuery, userID, accommodationID)
}

func (r *Repository) getOne(ctx context.Context, op, query string, arg any) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, db.Failure(op, err)
	}
	return u, nil
}

func (r *Repository) exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, db.Failure(op, err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// duplicateUser maps a unique violation on users to its sentinel, or nil.
func duplicateUser(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case constraintEmail:
		return ErrDuplicateEmail
	case constraintUsername:
		return ErrDuplicateUsername
	}
	return nil
}
