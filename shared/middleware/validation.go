package middleware

import (
	"errors"
	"net/http"

	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const JSONMediaType = "application/json"

type ErrorResponse struct {
	Message string `json:"message"`
}

// CheckContentType requires an exact Content-Type header match. A missing
// header is a mismatch.
func CheckContentType(c *gin.Context, mediaType string) error {
	contentType := c.GetHeader("Content-Type")
	if contentType != "" && contentType == mediaType {
		return nil
	}
	log.Error().Str("content_type", contentType).Msg("Invalid Content-Type")
	return apperror.UnsupportedMediaType("Content-Type must be " + mediaType)
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Message: message})
}

// RespondWithAppError maps err to its status code. Errors without a
// client-facing kind are logged and reported as a bare 500.
func RespondWithAppError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := kind.Status()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("kind", kind.String()).
			Str("request_id", GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		RespondWithError(c, status, http.StatusText(status))
		return
	}
	var appErr *apperror.Error
	errors.As(err, &appErr)
	RespondWithError(c, status, appErr.Message)
}

// NotFoundHandler and MethodNotAllowedHandler keep unmatched routes on the
// JSON error contract.
func NotFoundHandler(c *gin.Context) {
	RespondWithError(c, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func MethodNotAllowedHandler(c *gin.Context) {
	RespondWithError(c, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}
