// Package service contains the accommodation business rules.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"staybook/internal/accommodations/repository"
	"staybook/platform/apperr"
	"staybook/platform/logger"
	"staybook/platform/validator"
)

// MaxPrice is the largest price the NUMERIC(10,2) column holds.
const MaxPrice = 999999.99

// Validation messages.
const (
	msgNotFound            = "Accommodation not found"
	msgLimitPositive       = "Limit must be greater than 0"
	msgOffsetNegative      = "Offset cannot be negative"
	msgSearchEmpty         = "Search term cannot be empty"
	msgSearchTooShort      = "Search term must be at least 2 characters long"
	msgLocationEmpty       = "Location cannot be empty"
	msgMinPriceNegative    = "Minimum price cannot be negative"
	msgMaxPriceNegative    = "Maximum price cannot be negative"
	msgPriceRangeInverted  = "Minimum price cannot be greater than maximum price"
	msgAmenityEmpty        = "Amenity cannot be empty"
	msgAmenityTooLong      = "Amenity must not exceed 100 characters"
	msgAmenitiesDuplicated = "Amenities cannot contain duplicates"
	msgTitleRequired       = "Title is required"
	msgTitleLength         = "Title must be between 3 and 200 characters"
	msgDescriptionRequired = "Description is required"
	msgDescriptionLength   = "Description must be between 10 and 2000 characters"
	msgPriceNegative       = "Price cannot be negative"
	msgPriceTooHigh        = "Price cannot exceed 999999.99"
	msgLocationRequired    = "Location is required"
	msgLocationLength      = "Location must be between 2 and 100 characters"
	msgImageURLInvalid     = "Invalid image URL format"
	msgImageURLTooLong     = "Image URL must not exceed 500 characters"
)

// CreateInput holds the fields of a new accommodation.
type CreateInput struct {
	Title       string
	Description string
	Price       float64
	Location    string
	ImageURL    *string
	Amenities   []string
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Price       *float64
	Location    *string
	ImageURL    *string
	Amenities   *[]string
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Price == nil &&
		in.Location == nil && in.ImageURL == nil && in.Amenities == nil
}

type Service struct {
	repo     repository.AccommodationRepository
	validate *validator.Validator
	log      *logger.Logger
}

func New(repo repository.AccommodationRepository, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, validate: val, log: log}
}

// Create validates and stores a new accommodation.
func (s *Service) Create(ctx context.Context, in CreateInput) (repository.Accommodation, error) {
	a := repository.Accommodation{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		ImageURL:    normalizeURL(in.ImageURL),
		Amenities:   normalizeAmenities(in.Amenities),
	}
	if err := s.validateAccommodation(a); err != nil {
		return repository.Accommodation{}, err
	}

	created, err := s.repo.Create(ctx, repository.CreateParams{
		Title:       a.Title,
		Description: a.Description,
		Price:       a.Price,
		Location:    a.Location,
		ImageURL:    a.ImageURL,
		Amenities:   a.Amenities,
	})
	if err != nil {
		return repository.Accommodation{}, err
	}

	s.log.Info("accommodation created", "accommodation_id", created.ID, "title", created.Title)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (repository.Accommodation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]repository.Accommodation, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListPaginated(ctx context.Context, limit, offset int) ([]repository.Accommodation, error) {
	if limit <= 0 {
		return nil, apperr.Validation(msgLimitPositive)
	}
	if offset < 0 {
		return nil, apperr.Validation(msgOffsetNegative)
	}
	return s.repo.ListPage(ctx, limit, offset)
}

// Search finds accommodations whose title or description contains term.
func (s *Service) Search(ctx context.Context, term string) ([]repository.Accommodation, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation(msgSearchEmpty)
	}
	if utf8.RuneCountInString(term) < 2 {
		return nil, apperr.Validation(msgSearchTooShort)
	}
	return s.repo.Search(ctx, term)
}

func (s *Service) ListByLocation(ctx context.Context, location string) ([]repository.Accommodation, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperr.Validation(msgLocationEmpty)
	}
	return s.repo.ListByLocation(ctx, location)
}

// ListByPriceRange returns accommodations priced within [minPrice, maxPrice],
// cheapest first.
func (s *Service) ListByPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]repository.Accommodation, error) {
	if minPrice < 0 {
		return nil, apperr.Validation(msgMinPriceNegative)
	}
	if maxPrice < 0 {
		return nil, apperr.Validation(msgMaxPriceNegative)
	}
	if minPrice > maxPrice {
		return nil, apperr.Validation(msgPriceRangeInverted)
	}
	return s.repo.ListByPriceRange(ctx, minPrice, maxPrice)
}

func (s *Service) ListByAmenity(ctx context.Context, amenity string) ([]repository.Accommodation, error) {
	amenity = strings.TrimSpace(amenity)
	if amenity == "" {
		return nil, apperr.Validation(msgAmenityEmpty)
	}
	return s.repo.ListByAmenity(ctx, amenity)
}

// Update applies a partial update. The merged record is validated as a whole.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (repository.Accommodation, error) {
	return s.repo.Modify(ctx, id, func(current *repository.Accommodation) error {
		if in.empty() {
			return repository.ErrNoChange
		}
		if in.Title != nil {
			current.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			current.Description = strings.TrimSpace(*in.Description)
		}
		if in.Price != nil {
			current.Price = *in.Price
		}
		if in.Location != nil {
			current.Location = strings.TrimSpace(*in.Location)
		}
		if in.ImageURL != nil {
			current.ImageURL = normalizeURL(in.ImageURL)
		}
		if in.Amenities != nil {
			current.Amenities = normalizeAmenities(*in.Amenities)
		}
		return s.validateAccommodation(*current)
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound(msgNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("accommodation deleted", "accommodation_id", id)
	return nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// AddAmenity appends amenity unless it is already listed.
func (s *Service) AddAmenity(ctx context.Context, id int64, amenity string) (repository.Accommodation, error) {
	amenity = strings.TrimSpace(amenity)
	return s.repo.Modify(ctx, id, func(current *repository.Accommodation) error {
		if err := checkAmenity(amenity); err != nil {
			return err
		}
		if current.HasAmenity(amenity) {
			return repository.ErrNoChange
		}
		current.Amenities = append(append([]string{}, current.Amenities...), amenity)
		return nil
	})
}

// RemoveAmenity drops amenity if it is listed.
func (s *Service) RemoveAmenity(ctx context.Context, id int64, amenity string) (repository.Accommodation, error) {
	amenity = strings.TrimSpace(amenity)
	return s.repo.Modify(ctx, id, func(current *repository.Accommodation) error {
		if amenity == "" {
			return apperr.Validation(msgAmenityEmpty)
		}
		if !current.HasAmenity(amenity) {
			return repository.ErrNoChange
		}
		kept := make([]string, 0, len(current.Amenities)-1)
		for _, existing := range current.Amenities {
			if existing != amenity {
				kept = append(kept, existing)
			}
		}
		current.Amenities = kept
		return nil
	})
}

// ListUsers returns the users that saved accommodation id.
func (s *Service) ListUsers(ctx context.Context, id int64) ([]repository.Saver, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound(msgNotFound)
	}
	return s.repo.ListSavers(ctx, id)
}

func (s *Service) validateAccommodation(a repository.Accommodation) error {
	switch n := utf8.RuneCountInString(a.Title); {
	case n == 0:
		return apperr.Validation(msgTitleRequired)
	case n < 3 || n > 200:
		return apperr.Validation(msgTitleLength)
	}

	switch n := utf8.RuneCountInString(a.Description); {
	case n == 0:
		return apperr.Validation(msgDescriptionRequired)
	case n < 10 || n > 2000:
		return apperr.Validation(msgDescriptionLength)
	}

	if a.Price < 0 {
		return apperr.Validation(msgPriceNegative)
	}
	if a.Price > MaxPrice {
		return apperr.Validation(msgPriceTooHigh)
	}

	switch n := utf8.RuneCountInString(a.Location); {
	case n == 0:
		return apperr.Validation(msgLocationRequired)
	case n < 2 || n > 100:
		return apperr.Validation(msgLocationLength)
	}

	if a.ImageURL != nil {
		if err := s.validate.Var(*a.ImageURL, "url"); err != nil {
			return apperr.Validation(msgImageURLInvalid)
		}
		if utf8.RuneCountInString(*a.ImageURL) > 500 {
			return apperr.Validation(msgImageURLTooLong)
		}
	}

	seen := make(map[string]struct{}, len(a.Amenities))
	for _, amenity := range a.Amenities {
		if err := checkAmenity(amenity); err != nil {
			return err
		}
		if _, dup := seen[amenity]; dup {
			return apperr.Validation(msgAmenitiesDuplicated)
		}
		seen[amenity] = struct{}{}
	}
	return nil
}

func checkAmenity(amenity string) error {
	if amenity == "" {
		return apperr.Validation(msgAmenityEmpty)
	}
	if utf8.RuneCountInString(amenity) > 100 {
		return apperr.Validation(msgAmenityTooLong)
	}
	return nil
}

func normalizeURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeAmenities(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
