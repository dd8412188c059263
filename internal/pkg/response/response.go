// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "subpay-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	c.JSON(code, resp)
}

// FromError maps application sentinel errors to HTTP status codes and
// writes the standard error envelope.
func FromError(c *gin.Context, message string, err error) {
	Error(c, StatusOf(err), message, err)
}

// StatusOf resolves the HTTP status for an application error.
func StatusOf(err error) int {
	switch {
	case xerrors.Is(err, xerrors.ErrInvalidInput), xerrors.Is(err, xerrors.ErrBadRequest), xerrors.Is(err, xerrors.ErrInvalidToken):
		return http.StatusBadRequest
	case xerrors.Is(err, xerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case xerrors.Is(err, xerrors.ErrForbidden):
		return http.StatusForbidden
	case xerrors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case xerrors.Is(err, xerrors.ErrIncorrectAmount), xerrors.Is(err, xerrors.ErrInsufficientDeposit):
		return http.StatusPaymentRequired
	case xerrors.Is(err, xerrors.ErrAlreadyExists),
		xerrors.Is(err, xerrors.ErrPlanInactive),
		xerrors.Is(err, xerrors.ErrNotActive),
		xerrors.Is(err, xerrors.ErrPaymentNotDue):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
