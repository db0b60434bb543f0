// Package service implements login, registration and token lifecycle.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"staybook/internal/users/repository"
	"staybook/platform/apperr"
	"staybook/platform/config"
	"staybook/platform/logger"
	"staybook/platform/password"
	"staybook/platform/token"
	"staybook/platform/validator"
)

// Length of passwords generated by ResetPassword.
const resetPasswordLength = 12

const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid credentials"
	msgUsernameRequired    = "Username is required"
	msgEmailRequired       = "Email is required"
	msgPasswordRequired    = "Password is required"
	msgInvalidEmail        = "Invalid email format"
	msgEmailTooLong        = "Email must not exceed 100 characters"
	msgUsernameLength      = "Username must be between 3 and 50 characters"
	msgUsernameFormat      = "Username can only contain letters, numbers, underscores and hyphens"
	msgInvalidRole         = "Invalid role"
	msgAdminRegistration   = "Admin registration is disabled"
	msgEmailTaken          = "User with this email already exists"
	msgUsernameTaken       = "User with this username already exists"
	msgUserNotFound        = "User not found"
	msgCurrentPassword     = "Current password is incorrect"
	msgInvalidToken        = "Invalid or expired token"

	prefixPasswordInvalid    = "Password validation failed: "
	prefixNewPasswordInvalid = "New password validation failed: "
)

// UserStore is the slice of the user repository authentication needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, params repository.CreateParams) (repository.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, digest string) bool
	NeedsRehash(digest string) bool
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(userID int64, email, role string) (string, error)
	Verify(raw string) (*token.Claims, error)
	TTL() time.Duration
}

// Session is the result of a successful login, registration or refresh.
type Session struct {
	Token     string
	User      repository.User
	ExpiresIn int64
}

// RegisterInput holds a registration request. Role may be empty.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type Service struct {
	users    UserStore
	hasher   Hasher
	tokens   Tokens
	validate *validator.Validator
	cfg      config.AuthConfig
	log      *logger.Logger
}

func New(users UserStore, hasher Hasher, tokens Tokens, val *validator.Validator, cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, validate: val, cfg: cfg, log: log}
}

// Login checks credentials and issues a token. Unknown email and wrong
// password fail with the same message.
func (s *Service) Login(ctx context.Context, email, plain string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(plain) == "" {
		return Session{}, apperr.Validation(msgCredentialsRequired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("login", email, false, "unknown email")
		return Session{}, apperr.Validation(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	if !s.hasher.Verify(ctx, plain, user.PasswordHash) {
		s.log.AuthEvent("login", email, false, "wrong password")
		return Session{}, apperr.Validation(msgInvalidCredentials)
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, plain)
	}

	s.log.AuthEvent("login", email, true, "")
	return s.session(user)
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case username == "":
		return Session{}, apperr.Validation(msgUsernameRequired)
	case email == "":
		return Session{}, apperr.Validation(msgEmailRequired)
	case in.Password == "":
		return Session{}, apperr.Validation(msgPasswordRequired)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return Session{}, apperr.Validation(msgInvalidEmail)
	}
	if utf8.RuneCountInString(email) > 100 {
		return Session{}, apperr.Validation(msgEmailTooLong)
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return Session{}, apperr.Validation(msgUsernameLength)
	}
	if !validator.ValidUsername(username) {
		return Session{}, apperr.Validation(msgUsernameFormat)
	}

	role, err := s.registrationRole(in.Role)
	if err != nil {
		return Session{}, err
	}

	if taken, err := s.users.EmailExists(ctx, email, 0); err != nil {
		return Session{}, err
	} else if taken {
		return Session{}, apperr.Validation(msgEmailTaken)
	}
	if taken, err := s.users.UsernameExists(ctx, username, 0); err != nil {
		return Session{}, err
	} else if taken {
		return Session{}, apperr.Validation(msgUsernameTaken)
	}

	if strength := password.ValidateStrength(in.Password); !strength.Valid {
		return Session{}, apperr.Validation(prefixPasswordInvalid + strings.Join(strength.Errors, ", "))
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.users.Create(ctx, repository.CreateParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return Session{}, apperr.Validation(msgEmailTaken)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return Session{}, apperr.Validation(msgUsernameTaken)
	case err != nil:
		return Session{}, err
	}

	s.log.AuthEvent("register", email, true, "")
	return s.session(user)
}

// ValidateToken returns the current user behind raw.
func (s *Service) ValidateToken(ctx context.Context, raw string) (repository.User, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return repository.User{}, apperr.Unauthorized(msgInvalidToken)
	}
	userID, err := claims.UserID()
	if err != nil {
		return repository.User{}, apperr.Unauthorized(msgInvalidToken)
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.Unauthorized(msgInvalidToken)
	}
	if err != nil {
		return repository.User{}, err
	}
	return user, nil
}

// RefreshToken issues a fresh token for a still valid one whose user exists.
func (s *Service) RefreshToken(ctx context.Context, raw string) (Session, error) {
	user, err := s.ValidateToken(ctx, raw)
	if err != nil {
		return Session{}, err
	}
	s.log.AuthEvent("refresh", strconv.FormatInt(user.ID, 10), true, "")
	return s.session(user)
}

// ChangePassword replaces the password of userID after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return err
	}
	if !s.hasher.Verify(ctx, current, user.PasswordHash) {
		s.log.AuthEvent("change_password", user.Email, false, "wrong current password")
		return apperr.Validation(msgCurrentPassword)
	}
	if strength := password.ValidateStrength(next); !strength.Valid {
		return apperr.Validation(prefixNewPasswordInvalid + strings.Join(strength.Errors, ", "))
	}

	if err := s.storePassword(ctx, userID, next); err != nil {
		return err
	}
	s.log.AuthEvent("change_password", user.Email, true, "")
	return nil
}

// ResetPassword gives userID a generated password and returns it.
func (s *Service) ResetPassword(ctx context.Context, userID int64) (string, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound(msgUserNotFound)
		}
		return "", err
	}

	generated, err := password.GenerateSecurePassword(resetPasswordLength)
	if err != nil {
		return "", err
	}
	if err := s.storePassword(ctx, userID, generated); err != nil {
		return "", err
	}
	s.log.AuthEvent("reset_password", strconv.FormatInt(userID, 10), true, "")
	return generated, nil
}

func (s *Service) registrationRole(raw string) (string, error) {
	switch strings.TrimSpace(raw) {
	case "", repository.RoleUser:
		return repository.RoleUser, nil
	case repository.RoleAdmin:
		if !s.cfg.GetAllowAdminRegistration() {
			return "", apperr.Forbidden(msgAdminRegistration)
		}
		return repository.RoleAdmin, nil
	}
	return "", apperr.Validation(msgInvalidRole)
}

func (s *Service) storePassword(ctx context.Context, userID int64, plain string) error {
	hash, err := s.hasher.Hash(ctx, plain)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}
	return nil
}

// rehash upgrades a digest made with an outdated cost. Failure is logged only.
func (s *Service) rehash(ctx context.Context, userID int64, plain string) {
	if err := s.storePassword(ctx, userID, plain); err != nil {
		s.log.WithContext(ctx).Warn("password rehash failed", "user_id", userID, "error", err)
	}
}

func (s *Service) session(user repository.User) (Session, error) {
	signed, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, User: user, ExpiresIn: int64(s.tokens.TTL() / time.Second)}, nil
}
