package handler

import (
	"net/http"

	"staybook/internal/auth/service"
	"staybook/internal/auth/transport"
	"staybook/platform/apperr"
	"staybook/platform/httpkit"
	"staybook/platform/routing"
	"staybook/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgTokenRequired = "Authorization token is required"

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Login(c *gin.Context, _ routing.Params) (any, error) {
	var req transport.LoginRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return transport.ToAuthResponse("Login successful", session), nil
}

func (h *Handler) Register(c *gin.Context, _ routing.Params) (any, error) {
	var req transport.RegisterRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}

	session, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return nil, err
	}
	return httpkit.Respond(http.StatusCreated, transport.ToAuthResponse("Registration successful", session)), nil
}

func (h *Handler) Refresh(c *gin.Context, _ routing.Params) (any, error) {
	raw, ok := httpkit.BearerToken(c)
	if !ok {
		return nil, apperr.Unauthorized(msgTokenRequired)
	}

	session, err := h.svc.RefreshToken(c.Request.Context(), raw)
	if err != nil {
		return nil, err
	}
	return transport.RefreshResponse{
		Success:   true,
		Message:   "Token refreshed successfully",
		Token:     session.Token,
		ExpiresIn: session.ExpiresIn,
	}, nil
}

func (h *Handler) Validate(c *gin.Context, _ routing.Params) (any, error) {
	raw, ok := httpkit.BearerToken(c)
	if !ok {
		return nil, apperr.Unauthorized(msgTokenRequired)
	}

	user, err := h.svc.ValidateToken(c.Request.Context(), raw)
	if err != nil {
		return nil, err
	}
	return transport.ValidateResponse{
		Success: true,
		Message: "Token is valid",
		User:    transport.ToTokenUser(user),
	}, nil
}

func (h *Handler) ChangePassword(c *gin.Context, _ routing.Params) (any, error) {
	caller := httpkit.CurrentIdentity(c)
	if caller == nil {
		return nil, apperr.Unauthorized(httpkit.MsgAuthRequired)
	}
	var req transport.ChangePasswordRequest
	if err := httpkit.BindAndValidate(c, h.val, &req); err != nil {
		return nil, err
	}

	if err := h.svc.ChangePassword(c.Request.Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return transport.MessageResponse{Success: true, Message: "Password changed successfully"}, nil
}

// ResetPassword sets a generated password for another user (admin).
func (h *Handler) ResetPassword(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), "user ID")
	if err != nil {
		return nil, err
	}

	generated, err := h.svc.ResetPassword(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return transport.ResetPasswordResponse{
		Success: true,
		Message: "Password reset successfully",
		Data:    transport.ResetPasswordData{UserID: id, NewPassword: generated},
	}, nil
}
