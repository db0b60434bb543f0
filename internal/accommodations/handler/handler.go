package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"staybook/internal/accommodations/repository"
	"staybook/internal/accommodations/service"
	"staybook/internal/accommodations/transport"
	"staybook/platform/apperr"
	"staybook/platform/httpkit"
	"staybook/platform/routing"
	"staybook/platform/validator"

	"github.com/gin-gonic/gin"
)

const idLabel = "accommodation ID"

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List serves the public listing. Exactly one filter applies, in priority
// order: search, location, price range, amenity, pagination, none.
func (h *Handler) List(c *gin.Context, _ routing.Params) (any, error) {
	filters, err := parseFilters(c)
	if err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	var items []repository.Accommodation
	switch {
	case present(filters.Search):
		items, err = h.svc.Search(ctx, *filters.Search)
	case present(filters.Location):
		items, err = h.svc.ListByLocation(ctx, *filters.Location)
	case filters.MinPrice != nil && filters.MaxPrice != nil:
		items, err = h.svc.ListByPriceRange(ctx, *filters.MinPrice, *filters.MaxPrice)
	case present(filters.Amenity):
		items, err = h.svc.ListByAmenity(ctx, *filters.Amenity)
	case filters.Limit != nil:
		offset := 0
		if filters.Offset != nil {
			offset = *filters.Offset
		}
		items, err = h.svc.ListPaginated(ctx, *filters.Limit, offset)
	default:
		items, err = h.svc.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	accommodations := transport.ToAccommodationResponses(items)
	return transport.ListAccommodationsResponse{
		Accommodations: accommodations,
		Total:          len(accommodations),
		FiltersApplied: filters,
	}, nil
}

func (h *Handler) Get(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return transport.AccommodationEnvelope{Accommodation: transport.ToAccommodationResponse(a)}, nil
}

func (h *Handler) Create(c *gin.Context, _ routing.Params) (any, error) {
	admin := httpkit.CurrentIdentity(c)
	if admin == nil {
		return nil, apperr.Unauthorized(httpkit.MsgAuthRequired)
	}

	var req transport.CreateAccommodationRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperr.Validation("Missing required fields").WithDetails(gin.H{
			"missing_fields":  missing,
			"required_fields": transport.RequiredFields,
		})
	}

	a, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:       *req.Title,
		Description: *req.Description,
		Price:       *req.Price,
		Location:    *req.Location,
		ImageURL:    req.ImageURL,
		Amenities:   req.Amenities,
	})
	if err != nil {
		return nil, err
	}

	return httpkit.Respond(http.StatusCreated, transport.CreateAccommodationResponse{
		Message:       "Accommodation created successfully",
		Accommodation: transport.ToAccommodationResponse(a),
		CreatedBy: transport.CreatedBy{
			AdminID:       admin.ID,
			AdminUsername: admin.Username,
		},
	}), nil
}

func (h *Handler) Update(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}
	var req transport.UpdateAccommodationRequest
	if err := httpkit.BindJSON(c, &req); err != nil {
		return nil, err
	}

	a, err := h.svc.Update(c.Request.Context(), id, service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		Amenities:   req.Amenities,
	})
	if err != nil {
		return nil, err
	}
	resp := transport.ToAccommodationResponse(a)
	return transport.MutationResponse{Message: "Accommodation updated successfully", Accommodation: &resp}, nil
}

func (h *Handler) Delete(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}
	return transport.MutationResponse{Message: "Accommodation deleted successfully"}, nil
}

func (h *Handler) AddAmenity(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}
	var req transport.AmenityRequest
	if err := httpkit.BindAndValidate(c, h.val, &req); err != nil {
		return nil, err
	}

	a, err := h.svc.AddAmenity(c.Request.Context(), id, req.Amenity)
	if err != nil {
		return nil, err
	}
	resp := transport.ToAccommodationResponse(a)
	return transport.MutationResponse{Message: "Amenity added successfully", Accommodation: &resp}, nil
}

func (h *Handler) RemoveAmenity(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}

	a, err := h.svc.RemoveAmenity(c.Request.Context(), id, p.Get("amenity"))
	if err != nil {
		return nil, err
	}
	resp := transport.ToAccommodationResponse(a)
	return transport.MutationResponse{Message: "Amenity removed successfully", Accommodation: &resp}, nil
}

func (h *Handler) ListUsers(c *gin.Context, p routing.Params) (any, error) {
	id, err := httpkit.ParseID(p.Get("id"), idLabel)
	if err != nil {
		return nil, err
	}
	savers, err := h.svc.ListUsers(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	users := transport.ToSaverResponses(savers)
	return transport.AccommodationUsersResponse{AccommodationID: id, Users: users, Total: len(users)}, nil
}

func parseFilters(c *gin.Context) (transport.FiltersApplied, error) {
	var (
		f   transport.FiltersApplied
		err error
	)
	f.Search = queryString(c, "search")
	f.Location = queryString(c, "location")
	f.Amenity = queryString(c, "amenity")

	if f.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func queryString(c *gin.Context, key string) *string {
	value, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &value
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperr.BadRequest(key + " must be a number")
	}
	return &value, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperr.BadRequest(key + " must be an integer")
	}
	return &value, nil
}

// present reports whether a query parameter was given with a non-empty value.
func present(s *string) bool {
	return s != nil && *s != ""
}
