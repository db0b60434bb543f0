// Package adapter provides implementations of interfaces that other layers
// need from the auth context. The HTTP middleware resolves token subjects
// through it without depending on user internals.
package adapter

import (
	"context"
	"errors"

	"staybook/internal/users/repository"
	"staybook/platform/apperr"
	"staybook/platform/httpkit"
)

// UserReader loads a user by id.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (repository.User, error)
}

// IdentityLookupAdapter implements httpkit.IdentityLookup on top of the user store.
type IdentityLookupAdapter struct {
	users UserReader
}

// NewIdentityLookupAdapter creates the adapter.
func NewIdentityLookupAdapter(users UserReader) *IdentityLookupAdapter {
	return &IdentityLookupAdapter{users: users}
}

// LookupIdentity implements httpkit.IdentityLookup.
func (a *IdentityLookupAdapter) LookupIdentity(ctx context.Context, userID int64) (*httpkit.Identity, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(httpkit.MsgUserNotFound)
		}
		return nil, err
	}

	return &httpkit.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

// Ensure IdentityLookupAdapter implements httpkit.IdentityLookup
var _ httpkit.IdentityLookup = (*IdentityLookupAdapter)(nil)
