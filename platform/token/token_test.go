package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticConfig struct {
	secret string
	issuer string
	ttl    time.Duration
}

func (c staticConfig) GetJWTSecret() string     { return c.secret }
func (c staticConfig) GetJWTIssuer() string     { return c.issuer }
func (c staticConfig) GetJWTTTL() time.Duration { return c.ttl }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(ttl time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(staticConfig{secret: "test-secret", issuer: "staybook", ttl: ttl}, WithClock(clock.Now))
	return m, clock
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m, clock := newTestManager(time.Hour)

	raw, err := m.Issue(42, "alice@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "staybook", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{Audience}, claims.Audience)
	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	m, clock := newTestManager(time.Second)

	raw, err := m.Issue(1, "bob@example.com", "user")
	require.NoError(t, err)

	_, err = m.Verify(raw)
	require.NoError(t, err)
	assert.False(t, m.IsExpired(raw))

	clock.Advance(2 * time.Second)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, m.IsExpired(raw))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	m, clock := newTestManager(time.Hour)
	other := NewManager(staticConfig{secret: "other-secret", issuer: "staybook", ttl: time.Hour}, WithClock(clock.Now))

	raw, err := other.Issue(1, "eve@example.com", "admin")
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	m, clock := newTestManager(time.Hour)

	claims := Claims{
		Email: "eve@example.com",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "staybook",
			Subject:   "1",
			Audience:  jwt.ClaimStrings{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNotYetValidToken(t *testing.T) {
	m, clock := newTestManager(time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "staybook",
			Subject:   "1",
			Audience:  jwt.ClaimStrings{Audience},
			NotBefore: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	m, clock := newTestManager(time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "staybook",
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedTokenReportsReasonToHook(t *testing.T) {
	var reason error
	m := NewManager(staticConfig{secret: "s", issuer: "staybook"}, WithDebugHook(func(err error) { reason = err }))

	_, err := m.Verify("not.a.jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
	require.Error(t, reason)
	assert.False(t, errors.Is(reason, ErrInvalidToken))
	assert.Equal(t, DefaultTTL, m.TTL())
}
