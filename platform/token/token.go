// Package token issues and verifies the signed bearer tokens used for API
// authentication.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Audience is the fixed aud claim of every issued token.
	Audience = "accommodation-management-system"
	// DefaultTTL is the token lifetime when none is configured.
	DefaultTTL = time.Hour
)

// ErrInvalidToken is returned for every verification failure. Callers must
// not tell clients why a token was rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// Config is the subset of configuration the manager needs.
type Config interface {
	GetJWTSecret() string
	GetJWTIssuer() string
	GetJWTTTL() time.Duration
}

// Claims is the token payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Manager signs and verifies HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	debug  func(reason error)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDebugHook receives the internal reason a token failed verification.
// The reason is for server-side logs only.
func WithDebugHook(fn func(reason error)) Option {
	return func(m *Manager) { m.debug = fn }
}

// NewManager creates a Manager from configuration.
func NewManager(cfg Config, opts ...Option) *Manager {
	ttl := cfg.GetJWTTTL()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		secret: []byte(cfg.GetJWTSecret()),
		issuer: cfg.GetJWTIssuer(),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the given user.
func (m *Manager) Issue(userID int64, email, role string) (string, error) {
	now := m.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry, not-before, issuer and audience.
func (m *Manager) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		m.reject(err)
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		m.reject(errors.New("subject is not a user id"))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsExpired reports whether raw can no longer be used. Unverifiable tokens
// are treated as expired.
func (m *Manager) IsExpired(raw string) bool {
	_, err := m.Verify(raw)
	return err != nil
}

func (m *Manager) reject(reason error) {
	if m.debug != nil && reason != nil {
		m.debug(reason)
	}
}
