package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
)

// StatusFor maps an aggregate error code to an HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeNotEligible:
		return http.StatusForbidden
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAggregateError writes the error envelope for a service failure.
// Internal failures never leak their cause.
func RespondAggregateError(c *gin.Context, err error) {
	mapped := aggregates.MapError("http", err)
	code := domainagg.CodeOf(mapped)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)

	msg := "internal error"
	reason := ""
	var aggErr *domainagg.Error
	if errors.As(mapped, &aggErr) {
		reason = aggErr.Reason
		if aggErr.Message != "" {
			msg = aggErr.Message
		}
	}
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	_ = c.Error(err)
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    string(code),
			Reason:  reason,
		},
	})
}
