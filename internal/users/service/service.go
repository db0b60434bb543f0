// Package service contains the user business rules: profiles, roles and the
// saved accommodation list.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"staybook/internal/users/repository"
	"staybook/platform/apperr"
	"staybook/platform/logger"
	"staybook/platform/validator"
)

const (
	msgUserNotFound          = "User not found"
	msgAccommodationNotFound = "Accommodation not found"
	msgAccommodationID       = "Accommodation ID must be a positive integer"
	msgAlreadySaved          = "User already has this accommodation"
	msgNotSaved              = "User does not have this accommodation"
	msgUsernameTaken         = "Username already exists"
	msgEmailTaken            = "Email already exists"
	msgUsernameLength        = "Username must be between 3 and 50 characters"
	msgUsernameFormat        = "Username can only contain letters, numbers, underscores and hyphens"
	msgInvalidEmail          = "Invalid email format"
	msgEmailTooLong          = "Email must not exceed 100 characters"
	msgInvalidRole           = "Invalid role"
	msgOwnRole               = "You cannot change your own role"
	msgOwnAccount            = "You cannot delete your own account"
)

// AccommodationChecker reports whether an accommodation exists.
type AccommodationChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ProfileUpdate holds a partial profile change. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

type Service struct {
	repo           repository.UserRepository
	accommodations AccommodationChecker
	validate       *validator.Validator
	log            *logger.Logger
}

func New(repo repository.UserRepository, accommodations AccommodationChecker, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, accommodations: accommodations, validate: val, log: log}
}

func (s *Service) GetByID(ctx context.Context, id int64) (repository.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	return u, mapUserErr(err)
}

func (s *Service) List(ctx context.Context) ([]repository.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile changes username and/or email. Uniqueness is checked against
// every other user; the unique constraints remain the authority.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (repository.User, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.User{}, mapUserErr(err)
	}
	if in.Username == nil && in.Email == nil {
		return current, nil
	}

	username, email := current.Username, current.Email
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := s.checkUsername(username); err != nil {
			return repository.User{}, err
		}
		taken, err := s.repo.UsernameExists(ctx, username, id)
		if err != nil {
			return repository.User{}, err
		}
		if taken {
			return repository.User{}, apperr.Validation(msgUsernameTaken)
		}
	}
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
		if err := s.checkEmail(email); err != nil {
			return repository.User{}, err
		}
		taken, err := s.repo.EmailExists(ctx, email, id)
		if err != nil {
			return repository.User{}, err
		}
		if taken {
			return repository.User{}, apperr.Validation(msgEmailTaken)
		}
	}

	updated, err := s.repo.UpdateProfile(ctx, id, username, email)
	if err != nil {
		return repository.User{}, mapUserErr(err)
	}
	s.log.Info("user profile updated", "user_id", id)
	return updated, nil
}

// ChangeRole sets the role of id. actorID is the admin performing the change
// and may not demote themselves.
func (s *Service) ChangeRole(ctx context.Context, actorID, id int64, role string) (repository.User, error) {
	if role != repository.RoleUser && role != repository.RoleAdmin {
		return repository.User{}, apperr.Validation(msgInvalidRole)
	}
	if actorID == id {
		return repository.User{}, apperr.Validation(msgOwnRole)
	}
	u, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return repository.User{}, mapUserErr(err)
	}
	s.log.Info("user role changed", "user_id", id, "role", role, "by", actorID)
	return u, nil
}

// Delete removes id and, through the schema, its saved accommodations.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return apperr.Validation(msgOwnAccount)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapUserErr(err)
	}
	s.log.Info("user deleted", "user_id", id, "by", actorID)
	return nil
}

// GetAccommodations returns the accommodations saved by userID.
func (s *Service) GetAccommodations(ctx context.Context, userID int64) ([]repository.SavedAccommodation, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListAccommodations(ctx, userID)
}

// AddAccommodation saves accommodationID to the list of userID.
func (s *Service) AddAccommodation(ctx context.Context, userID, accommodationID int64) error {
	if err := s.checkPair(ctx, userID, accommodationID); err != nil {
		return err
	}
	saved, err := s.repo.HasAccommodation(ctx, userID, accommodationID)
	if err != nil {
		return err
	}
	if saved {
		return apperr.Validation(msgAlreadySaved)
	}

	if err := s.repo.AddAccommodation(ctx, userID, accommodationID); err != nil {
		return mapSavedErr(err)
	}
	s.log.Info("accommodation saved", "user_id", userID, "accommodation_id", accommodationID)
	return nil
}

// RemoveAccommodation drops accommodationID from the list of userID.
func (s *Service) RemoveAccommodation(ctx context.Context, userID, accommodationID int64) error {
	if err := s.checkPair(ctx, userID, accommodationID); err != nil {
		return err
	}
	if err := s.repo.RemoveAccommodation(ctx, userID, accommodationID); err != nil {
		return mapSavedErr(err)
	}
	s.log.Info("accommodation removed", "user_id", userID, "accommodation_id", accommodationID)
	return nil
}

func (s *Service) HasAccommodation(ctx context.Context, userID, accommodationID int64) (bool, error) {
	if err := s.checkPair(ctx, userID, accommodationID); err != nil {
		return false, err
	}
	return s.repo.HasAccommodation(ctx, userID, accommodationID)
}

func (s *Service) checkPair(ctx context.Context, userID, accommodationID int64) error {
	if accommodationID <= 0 {
		return apperr.Validation(msgAccommodationID)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	exists, err := s.accommodations.Exists(ctx, accommodationID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound(msgAccommodationNotFound)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, id int64) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound(msgUserNotFound)
	}
	return nil
}

func (s *Service) checkUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return apperr.Validation(msgUsernameLength)
	}
	if !validator.ValidUsername(username) {
		return apperr.Validation(msgUsernameFormat)
	}
	return nil
}

func (s *Service) checkEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.Validation(msgInvalidEmail)
	}
	if utf8.RuneCountInString(email) > 100 {
		return apperr.Validation(msgEmailTooLong)
	}
	return nil
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgUserNotFound)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperr.Validation(msgUsernameTaken)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.Validation(msgEmailTaken)
	}
	return err
}

func mapSavedErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrAlreadySaved):
		return apperr.Validation(msgAlreadySaved)
	case errors.Is(err, repository.ErrNotSaved):
		return apperr.Validation(msgNotSaved)
	case errors.Is(err, repository.ErrAccommodationMissing):
		return apperr.NotFound(msgAccommodationNotFound)
	}
	return mapUserErr(err)
}
