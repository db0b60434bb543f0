package httpkit

import (
	"context"
	"strconv"

	"staybook/platform/logger"
	"staybook/platform/token"

	"github.com/gin-gonic/gin"
)

// Roles known to the role gates.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ContextIdentityKey is the gin context key for the authenticated identity.
const ContextIdentityKey = "identity"

type identityContextKey struct{}

// Identity is the authenticated caller of one request.
type Identity struct {
	ID       int64
	Username string
	Email    string
	Role     string
	Claims   *token.Claims
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// HasRole reports whether the identity passes a gate for role. Admins pass every gate.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return i.IsAdmin() || i.Role == role
}

// SetIdentity publishes id to the rest of this request only: the gin context
// and the request's context.Context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(ContextIdentityKey, id)

	ctx := context.WithValue(c.Request.Context(), identityContextKey{}, id)
	ctx = context.WithValue(ctx, logger.UserIDKey, strconv.FormatInt(id.ID, 10))
	c.Request = c.Request.WithContext(ctx)
}

// CurrentIdentity returns the identity published for this request, or nil.
func CurrentIdentity(c *gin.Context) *Identity {
	value, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil
	}
	id, _ := value.(*Identity)
	return id
}

// IdentityFromContext returns the identity carried by ctx, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
