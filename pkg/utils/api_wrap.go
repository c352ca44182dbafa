package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Details []string    `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError translates service-layer errors into the response
// envelope. Retryable and non-retryable cases map to distinct status codes so
// callers can tell them apart without parsing messages.
func HandleServiceError(c *gin.Context, err error) {
	traceID := c.GetString("trace_id")

	var validation *ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, APIResponse{
			Status:  "error",
			Code:    http.StatusBadRequest,
			Message: "Invalid request",
			TraceID: traceID,
			Details: validation.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrOrderNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPurchased):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotPayable),
		errors.Is(err, ErrAlreadyProcessed),
		errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrProviderMismatch),
		errors.Is(err, ErrNotCancellable),
		errors.Is(err, ErrUnknownProvider):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGatewayFailure), errors.Is(err, ErrGatewayTimeout):
		log.Printf("gateway error: %v", err)
		RespondError(c, http.StatusInternalServerError, err.Error())
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
