package transport

import (
	"strings"

	"staybook/internal/accommodations/repository"
	"staybook/platform/httpkit"
)

// CreateAccommodationRequest is the admin create body. Pointer fields
// distinguish a missing field from a zero value.
type CreateAccommodationRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Location    *string  `json:"location"`
	ImageURL    *string  `json:"image_url"`
	Amenities   []string `json:"amenities"`
}

// RequiredFields lists the fields every create request must carry.
var RequiredFields = []string{"title", "description", "price", "location"}

// MissingFields returns the required fields that are absent or blank.
func (r CreateAccommodationRequest) MissingFields() []string {
	var missing []string
	if blank(r.Title) {
		missing = append(missing, "title")
	}
	if blank(r.Description) {
		missing = append(missing, "description")
	}
	if r.Price == nil {
		missing = append(missing, "price")
	}
	if blank(r.Location) {
		missing = append(missing, "location")
	}
	return missing
}

// UpdateAccommodationRequest is a partial update; omitted fields are kept.
type UpdateAccommodationRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Location    *string   `json:"location"`
	ImageURL    *string   `json:"image_url"`
	Amenities   *[]string `json:"amenities"`
}

type AmenityRequest struct {
	Amenity string `json:"amenity" validate:"required,max=100"`
}

type AccommodationResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	ImageURL    *string  `json:"image_url"`
	Amenities   []string `json:"amenities"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// FiltersApplied echoes the query parameters of a listing request; absent
// parameters are null.
type FiltersApplied struct {
	Search   *string  `json:"search"`
	Location *string  `json:"location"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Amenity  *string  `json:"amenity"`
	Limit    *int     `json:"limit"`
	Offset   *int     `json:"offset"`
}

type ListAccommodationsResponse struct {
	Accommodations []AccommodationResponse `json:"accommodations"`
	Total          int                     `json:"total"`
	FiltersApplied FiltersApplied          `json:"filters_applied"`
}

type AccommodationEnvelope struct {
	Accommodation AccommodationResponse `json:"accommodation"`
}

type CreatedBy struct {
	AdminID       int64  `json:"admin_id"`
	AdminUsername string `json:"admin_username"`
}

type CreateAccommodationResponse struct {
	Message       string                `json:"message"`
	Accommodation AccommodationResponse `json:"accommodation"`
	CreatedBy     CreatedBy             `json:"created_by"`
}

type MutationResponse struct {
	Message       string                 `json:"message"`
	Accommodation *AccommodationResponse `json:"accommodation,omitempty"`
}

type SaverResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SelectedAt string `json:"selected_at"`
}

type AccommodationUsersResponse struct {
	AccommodationID int64           `json:"accommodation_id"`
	Users           []SaverResponse `json:"users"`
	Total           int             `json:"total"`
}

func ToAccommodationResponse(a repository.Accommodation) AccommodationResponse {
	amenities := a.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return AccommodationResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Price:       a.Price,
		Location:    a.Location,
		ImageURL:    a.ImageURL,
		Amenities:   amenities,
		CreatedAt:   httpkit.FormatTimestamp(a.CreatedAt),
		UpdatedAt:   httpkit.FormatTimestamp(a.UpdatedAt),
	}
}

func ToAccommodationResponses(items []repository.Accommodation) []AccommodationResponse {
	out := make([]AccommodationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToAccommodationResponse(a))
	}
	return out
}

func ToSaverResponses(savers []repository.Saver) []SaverResponse {
	out := make([]SaverResponse, 0, len(savers))
	for _, s := range savers {
		out = append(out, SaverResponse{
			ID:         s.UserID,
			Username:   s.Username,
			Email:      s.Email,
			Role:       s.Role,
			SelectedAt: httpkit.FormatTimestamp(s.SelectedAt),
		})
	}
	return out
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
