package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/cliodyn/pkg/server/dto"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// validationErrors are engine errors that map to 400 rather than 500.
var validationErrors = []error{
	types.ErrEmptyName,
	types.ErrInvalidEra,
	types.ErrInvalidEventType,
	types.ErrInvalidFulfillmentType,
	types.ErrYearEndBeforeStart,
	types.ErrInvalidUncertaintyBound,
	types.ErrStrengthOutOfRange,
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
		code = "not_found"
	} else {
		for _, verr := range validationErrors {
			if errors.Is(err, verr) {
				status = http.StatusBadRequest
				code = "invalid_request"
				break
			}
		}
	}

	c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error(), Code: status})
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}
