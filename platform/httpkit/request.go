package httpkit

import (
	"strconv"
	"strings"

	"staybook/platform/apperr"
	"staybook/platform/validator"

	"github.com/gin-gonic/gin"
)

// MsgInvalidBody is returned when a request body is not the expected JSON.
const MsgInvalidBody = "Invalid JSON request body"

// BindJSON decodes the request body into dst.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.BadRequest(MsgInvalidBody)
	}
	return nil
}

// BindAndValidate decodes the request body into dst and checks its validate tags.
func BindAndValidate(c *gin.Context, val *validator.Validator, dst any) error {
	if err := BindJSON(c, dst); err != nil {
		return err
	}
	if err := val.Struct(dst); err != nil {
		return apperr.Validation(validator.Message(err))
	}
	return nil
}

// ParseID parses a positive integer path parameter.
func ParseID(raw, label string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid " + label)
	}
	return id, nil
}
