package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"staybook/internal/users/repository"
	"staybook/internal/users/repository/repotest"
	"staybook/platform/apperr"
	"staybook/platform/logger"
	"staybook/platform/password"
	"staybook/platform/token"
	"staybook/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct {
	allowAdmin bool
}

func (c testConfig) GetAllowAdminRegistration() bool { return c.allowAdmin }
func (c testConfig) GetJWTSecret() string            { return "test-secret" }
func (c testConfig) GetJWTIssuer() string            { return "staybook" }
func (c testConfig) GetJWTTTL() time.Duration        { return time.Hour }

type fixture struct {
	svc    *Service
	users  *repotest.Memory
	tokens *token.Manager
}

func newFixture(t *testing.T, cfg testConfig) fixture {
	t.Helper()
	hasher, err := password.NewHasher(4)
	require.NoError(t, err)
	users := repotest.NewMemory(nil)
	tokens := token.NewManager(cfg)
	return fixture{
		svc:    New(users, hasher, tokens, validator.New(), cfg, logger.Discard()),
		users:  users,
		tokens: tokens,
	}
}

func alice() RegisterInput {
	return RegisterInput{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"}
}

func requireKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t, testConfig{})

	session, err := f.svc.Register(context.Background(), alice())

	require.NoError(t, err)
	assert.Equal(t, repository.RoleUser, session.User.Role)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.NotEqual(t, "Passw0rd!", session.User.PasswordHash)

	claims, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	sameEmail := alice()
	sameEmail.Username = "alice2"
	_, err = f.svc.Register(ctx, sameEmail)
	requireKind(t, err, apperr.KindValidation, msgEmailTaken)

	sameName := alice()
	sameName.Email = "other@example.com"
	_, err = f.svc.Register(ctx, sameName)
	requireKind(t, err, apperr.KindValidation, msgUsernameTaken)

	all, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterValidationOrder(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*RegisterInput)
		message string
	}{
		"missing username": {func(in *RegisterInput) { in.Username = " " }, msgUsernameRequired},
		"missing email":    {func(in *RegisterInput) { in.Email = "" }, msgEmailRequired},
		"missing password": {func(in *RegisterInput) { in.Password = "" }, msgPasswordRequired},
		"bad email":        {func(in *RegisterInput) { in.Email = "alice-at-example" }, msgInvalidEmail},
		"short username":   {func(in *RegisterInput) { in.Username = "al" }, msgUsernameLength},
		"username symbols": {func(in *RegisterInput) { in.Username = "alice!" }, msgUsernameFormat},
		"unknown role":     {func(in *RegisterInput) { in.Role = "owner" }, msgInvalidRole},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testConfig{})
			in := alice()
			tc.mutate(&in)

			_, err := f.svc.Register(context.Background(), in)

			requireKind(t, err, apperr.KindValidation, tc.message)
		})
	}
}

func TestRegisterReportsEveryStrengthFailure(t *testing.T) {
	f := newFixture(t, testConfig{})
	in := alice()
	in.Password = "abc"

	_, err := f.svc.Register(context.Background(), in)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(appErr.Message, prefixPasswordInvalid))
	assert.Equal(t, 4, strings.Count(appErr.Message, "Password must"))
}

func TestAdminRegistrationPolicy(t *testing.T) {
	in := alice()
	in.Role = repository.RoleAdmin

	_, err := newFixture(t, testConfig{allowAdmin: false}).svc.Register(context.Background(), in)
	requireKind(t, err, apperr.KindForbidden, msgAdminRegistration)

	session, err := newFixture(t, testConfig{allowAdmin: true}).svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin())
}

func TestLoginHidesWhichCredentialFailed(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice@example.com", "Wrong0rd!")
	requireKind(t, err, apperr.KindValidation, msgInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody@example.com", "Passw0rd!")
	requireKind(t, err, apperr.KindValidation, msgInvalidCredentials)
	_, err = f.svc.Login(ctx, "", "Passw0rd!")
	requireKind(t, err, apperr.KindValidation, msgCredentialsRequired)

	session, err := f.svc.Login(ctx, " alice@example.com ", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	legacy, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 5)
	require.NoError(t, err)
	u, err := f.users.Create(ctx, repository.CreateParams{
		Username: "alice", Email: "alice@example.com", PasswordHash: string(legacy), Role: repository.RoleUser,
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)
}

func TestRefreshAndValidate(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	session, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	u, err := f.svc.ValidateToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, u.ID)

	refreshed, err := f.svc.RefreshToken(ctx, session.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	_, err = f.svc.ValidateToken(ctx, "not-a-token")
	requireKind(t, err, apperr.KindUnauthorized, msgInvalidToken)

	require.NoError(t, f.users.Delete(ctx, session.User.ID))
	_, err = f.svc.RefreshToken(ctx, session.Token)
	requireKind(t, err, apperr.KindUnauthorized, msgInvalidToken)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	session, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)
	id := session.User.ID

	requireKind(t, f.svc.ChangePassword(ctx, id, "Wrong0rd!", "N3w-Passw0rd"), apperr.KindValidation, msgCurrentPassword)

	err = f.svc.ChangePassword(ctx, id, "Passw0rd!", "weak")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(appErr.Message, prefixNewPasswordInvalid))

	require.NoError(t, f.svc.ChangePassword(ctx, id, "Passw0rd!", "N3w-Passw0rd"))
	_, err = f.svc.Login(ctx, "alice@example.com", "N3w-Passw0rd")
	assert.NoError(t, err)
}

func TestOverlongPasswordsAreValidationErrors(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	long := "Aa1!" + strings.Repeat("x", 76)

	in := alice()
	in.Password = long
	_, err := f.svc.Register(ctx, in)
	requireKind(t, err, apperr.KindValidation, prefixPasswordInvalid+password.MsgTooLong)

	session, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)
	err = f.svc.ChangePassword(ctx, session.User.ID, "Passw0rd!", long)
	requireKind(t, err, apperr.KindValidation, prefixNewPasswordInvalid+password.MsgTooLong)

	_, err = f.svc.Login(ctx, "alice@example.com", long)
	requireKind(t, err, apperr.KindValidation, msgInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t, testConfig{})
	ctx := context.Background()
	session, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	generated, err := f.svc.ResetPassword(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Len(t, generated, resetPasswordLength)

	_, err = f.svc.Login(ctx, "alice@example.com", generated)
	assert.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, 999)
	requireKind(t, err, apperr.KindNotFound, msgUserNotFound)
}
