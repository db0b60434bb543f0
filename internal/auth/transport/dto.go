package transport

import (
	"staybook/internal/auth/service"
	"staybook/internal/users/repository"
	"staybook/platform/httpkit"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse answers login and registration.
type AuthResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	User      UserResponse `json:"user"`
	ExpiresIn int64        `json:"expires_in"`
}

type RefreshResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type TokenUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ValidateResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	User    TokenUser `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ResetPasswordData struct {
	UserID      int64  `json:"user_id"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    ResetPasswordData `json:"data"`
}

func ToAuthResponse(message string, s service.Session) AuthResponse {
	return AuthResponse{
		Success:   true,
		Message:   message,
		Token:     s.Token,
		User:      toUserResponse(s.User),
		ExpiresIn: s.ExpiresIn,
	}
}

func ToTokenUser(u repository.User) TokenUser {
	return TokenUser{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

func toUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: httpkit.FormatTimestamp(u.CreatedAt),
		UpdatedAt: httpkit.FormatTimestamp(u.UpdatedAt),
	}
}
