package httpkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"staybook/platform/apperr"
	"staybook/platform/config"
	"staybook/platform/logger"
	"staybook/platform/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims map[string]*token.Claims
}

func (f fakeVerifier) Verify(raw string) (*token.Claims, error) {
	if c, ok := f.claims[raw]; ok {
		return c, nil
	}
	return nil, token.ErrInvalidToken
}

type fakeLookup struct {
	users map[int64]*Identity
	err   error
}

func (f fakeLookup) LookupIdentity(_ context.Context, id int64) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	copied := *u
	return &copied, nil
}

func testContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, rec
}

func claimsFor(sub string) *token.Claims {
	c := &token.Claims{Email: "alice@example.com", Role: RoleUser}
	c.Subject = sub
	return c
}

func newAuthenticate(lookupErr error) Middleware {
	verifier := fakeVerifier{claims: map[string]*token.Claims{
		"good":   claimsFor("1"),
		"ghost":  claimsFor("99"),
		"badsub": claimsFor("abc"),
	}}
	lookup := fakeLookup{
		users: map[int64]*Identity{1: {ID: 1, Username: "alice", Email: "alice@example.com", Role: RoleUser}},
		err:   lookupErr,
	}
	return Authenticate(verifier, lookup, logger.Discard())
}

func messageOf(t *testing.T, res *Result) string {
	t.Helper()
	require.NotNil(t, res)
	body, ok := res.Data.(ErrorResponse)
	require.True(t, ok, "expected ErrorResponse, got %T", res.Data)
	return body.Message
}

func TestAuthenticateMissingToken(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/api/users/accommodations")

	res := newAuthenticate(nil)(c)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, MsgTokenRequired, messageOf(t, res))
}

func TestAuthenticateInvalidToken(t *testing.T) {
	for _, raw := range []string{"forged", "badsub"} {
		c, _ := testContext(http.MethodGet, "/x")
		c.Request.Header.Set("Authorization", "Bearer "+raw)

		res := newAuthenticate(nil)(c)

		assert.Equal(t, http.StatusUnauthorized, res.Status, raw)
		assert.Equal(t, MsgInvalidToken, messageOf(t, res), raw)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/x")
	c.Request.Header.Set("Authorization", "Bearer ghost")

	res := newAuthenticate(nil)(c)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, MsgUserNotFound, messageOf(t, res))
}

func TestAuthenticateLookupFailureIsServerError(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/x")
	c.Request.Header.Set("Authorization", "Bearer good")

	res := newAuthenticate(errors.New("connection refused"))(c)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, GenericErrorMessage, messageOf(t, res))
}

func TestAuthenticatePublishesRequestScopedIdentity(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/x?token=good")

	res := newAuthenticate(nil)(c)
	require.Nil(t, res)

	id := CurrentIdentity(c)
	require.NotNil(t, id)
	assert.Equal(t, int64(1), id.ID)
	assert.Equal(t, "alice", id.Username)
	require.NotNil(t, id.Claims)
	assert.Equal(t, "1", id.Claims.Subject)
	assert.Same(t, id, IdentityFromContext(c.Request.Context()))

	other, _ := testContext(http.MethodGet, "/x")
	assert.Nil(t, CurrentIdentity(other))
	assert.Nil(t, IdentityFromContext(other.Request.Context()))
}

func TestBearerHeaderTakesPrecedenceOverQuery(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/x?token=query")
	c.Request.Header.Set("Authorization", "Bearer header")

	raw, ok := BearerToken(c)

	assert.True(t, ok)
	assert.Equal(t, "header", raw)
}

func TestRequireRole(t *testing.T) {
	gate := RequireRole(RoleUser)

	c, _ := testContext(http.MethodGet, "/x")
	res := gate(c)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, MsgAuthRequired, messageOf(t, res))

	c, _ = testContext(http.MethodGet, "/x")
	SetIdentity(c, &Identity{ID: 1, Role: RoleUser})
	assert.Nil(t, gate(c))

	c, _ = testContext(http.MethodGet, "/x")
	SetIdentity(c, &Identity{ID: 2, Role: RoleAdmin})
	assert.Nil(t, gate(c), "admin bypasses role gates")

	c, _ = testContext(http.MethodGet, "/x")
	SetIdentity(c, &Identity{ID: 3, Role: RoleUser})
	res = RequireRole(RoleAdmin)(c)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, MsgInsufficientRole, messageOf(t, res))
}

func TestRequireAuth(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/x")
	assert.Equal(t, http.StatusUnauthorized, RequireAuth()(c).Status)

	SetIdentity(c, &Identity{ID: 1, Role: RoleUser})
	assert.Nil(t, RequireAuth()(c))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}, CORSAllowCreds: true}
	c, rec := testContext(http.MethodOptions, "/api/accommodations")
	c.Request.Header.Set("Origin", "http://localhost:3000")
	c.Request.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res := CORS(cfg)(c)
	require.NotNil(t, res)
	assert.False(t, c.Writer.Written())
	Write(c, res)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestCORSRejectsUnknownOriginWithJSON(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}}
	c, rec := testContext(http.MethodGet, "/api/accommodations")
	c.Request.Header.Set("Origin", "http://evil.example")

	res := CORS(cfg)(c)
	require.NotNil(t, res)
	Write(c, res)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestFromGinKeepsBodiesWrittenByTheHandler(t *testing.T) {
	c, rec := testContext(http.MethodGet, "/api/accommodations")

	res := FromGin(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"error": "TEAPOT"})
	})(c)
	require.NotNil(t, res)
	Write(c, res)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"error":"TEAPOT"}`, rec.Body.String())
}

func TestCORSPassesSimpleRequests(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}}
	c, rec := testContext(http.MethodGet, "/api/accommodations")
	c.Request.Header.Set("Origin", "http://localhost:3000")

	res := CORS(cfg)(c)

	assert.Nil(t, res)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	limiter := NewAuthRateLimiter(2, logger.Discard())
	mw := limiter.Middleware()

	for i := 0; i < 2; i++ {
		c, _ := testContext(http.MethodPost, "/api/auth/login")
		assert.Nil(t, mw(c))
	}

	c, _ := testContext(http.MethodPost, "/api/auth/login")
	res := mw(c)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
}

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	var seen string
	engine.GET("/x", func(c *gin.Context) {
		seen, _ = c.Request.Context().Value(logger.RequestIDKey).(string)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestRecoveryRendersGenericBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(logger.Discard()))
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), GenericErrorMessage)
}
