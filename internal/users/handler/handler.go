package handler

import (
	"net/http"

	"staybook/internal/users/service"
	"staybook/internal/users/transport"
	"staybook/platform/apperr"
	"staybook/platform/httpkit"
	"staybook/platform/routing"
	"staybook/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgAccommodationIDRequired = "Accommodation ID is required"
	accommodationIDLabel       = "accommodation ID"
	userIDLabel                = "user ID"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Me(c *gin.Context, _ routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	u, err := h.svc.GetByID(c.Request.Context(), caller.ID)
	if err != nil {
		return nil, err
	}
	return transport.ProfileResponse{Success: true, User: transport.ToUserResponse(u)}, nil
}

func (h *Handler) UpdateMe(c *gin.Context, _ routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	var req transport.UpdateProfileRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), caller.ID, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return nil, err
	}
	return transport.ProfileResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    transport.ToUserResponse(u),
	}, nil
}

func (h *Handler) ListAccommodations(c *gin.Context, _ routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	saved, err := h.svc.GetAccommodations(c.Request.Context(), caller.ID)
	if err != nil {
		return nil, err
	}
	return transport.SavedListResponse{
		Success: true,
		Message: "User accommodations retrieved successfully",
		Data: transport.SavedListData{
			UserID:         caller.ID,
			Accommodations: transport.ToSavedAccommodationResponses(saved),
		},
	}, nil
}

func (h *Handler) AddAccommodation(c *gin.Context, _ routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	var req transport.SaveAccommodationRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}
	if req.AccommodationID == nil {
		return nil, apperr.Validation(msgAccommodationIDRequired)
	}

	accommodationID := *req.AccommodationID
	if err := h.svc.AddAccommodation(c.Request.Context(), caller.ID, accommodationID); err != nil {
		return nil, err
	}
	return httpkit.Respond(http.StatusCreated, transport.SavedPairResponse{
		Success: true,
		Message: "Accommodation added to user account successfully",
		Data:    transport.SavedPairData{UserID: caller.ID, AccommodationID: accommodationID},
	}), nil
}

func (h *Handler) RemoveAccommodation(c *gin.Context, p routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	accommodationID, err := httpkit.ParseID(p.Get("accommodation_id"), accommodationIDLabel)
	if err != nil {
		return nil, err
	}

	if err := h.svc.RemoveAccommodation(c.Request.Context(), caller.ID, accommodationID); err != nil {
		return nil, err
	}
	return transport.SavedPairResponse{
		Success: true,
		Message: "Accommodation removed from user account successfully",
		Data:    transport.SavedPairData{UserID: caller.ID, AccommodationID: accommodationID},
	}, nil
}

// List returns every user (admin).
func (h *Handler) List(c *gin.Context, _ routing.Params) (any, error) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		return nil, err
	}
	out := transport.ToUserResponses(users)
	return transport.UserListResponse{Success: true, Users: out, Total: len(out)}, nil
}

func (h *Handler) Delete(c *gin.Context, p routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParseID(p.Get("id"), userIDLabel)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(c.Request.Context(), caller.ID, id); err != nil {
		return nil, err
	}
	return transport.MessageResponse{Success: true, Message: "User deleted successfully"}, nil
}

func (h *Handler) ChangeRole(c *gin.Context, p routing.Params) (any, error) {
	caller, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParseID(p.Get("id"), userIDLabel)
	if err != nil {
		return nil, err
	}
	var req transport.ChangeRoleRequest
	if err := httpkit.BindAndValidate(c, h.val, &req); err != nil {
		return nil, err
	}

	u, err := h.svc.ChangeRole(c.Request.Context(), caller.ID, id, req.Role)
	if err != nil {
		return nil, err
	}
	return transport.ProfileResponse{
		Success: true,
		Message: "User role updated successfully",
		User:    transport.ToUserResponse(u),
	}, nil
}

func currentUser(c *gin.Context) (*httpkit.Identity, error) {
	id := httpkit.CurrentIdentity(c)
	if id == nil {
		return nil, apperr.Unauthorized(httpkit.MsgAuthRequired)
	}
	return id, nil
}
