package transport

import (
	"staybook/internal/users/repository"
	"staybook/platform/httpkit"
)

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// SaveAccommodationRequest carries the id of the accommodation to save.
type SaveAccommodationRequest struct {
	AccommodationID *int64 `json:"accommodation_id"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

type UserListResponse struct {
	Success bool           `json:"success"`
	Users   []UserResponse `json:"users"`
	Total   int            `json:"total"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SavedAccommodationResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	ImageURL    *string  `json:"image_url"`
	Amenities   []string `json:"amenities"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	SelectedAt  string   `json:"selected_at"`
}

type SavedListData struct {
	UserID         int64                        `json:"user_id"`
	Accommodations []SavedAccommodationResponse `json:"accommodations"`
}

type SavedListResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    SavedListData `json:"data"`
}

type SavedPairData struct {
	UserID          int64 `json:"user_id"`
	AccommodationID int64 `json:"accommodation_id"`
}

type SavedPairResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    SavedPairData `json:"data"`
}

func ToUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: httpkit.FormatTimestamp(u.CreatedAt),
		UpdatedAt: httpkit.FormatTimestamp(u.UpdatedAt),
	}
}

func ToUserResponses(users []repository.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

func ToSavedAccommodationResponses(items []repository.SavedAccommodation) []SavedAccommodationResponse {
	out := make([]SavedAccommodationResponse, 0, len(items))
	for _, a := range items {
		amenities := a.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		out = append(out, SavedAccommodationResponse{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Price:       a.Price,
			Location:    a.Location,
			ImageURL:    a.ImageURL,
			Amenities:   amenities,
			CreatedAt:   httpkit.FormatTimestamp(a.CreatedAt),
			UpdatedAt:   httpkit.FormatTimestamp(a.UpdatedAt),
			SelectedAt:  httpkit.FormatTimestamp(a.SelectedAt),
		})
	}
	return out
}
