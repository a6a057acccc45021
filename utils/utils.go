package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateDashlessUUID creates a new UUID v4 and returns its string representation
// with all dashes removed.
func GenerateDashlessUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// APIError is a standard structure for returning errors as JSON.
type APIError struct {
	Error string `json:"error"`
}

// GinError sends a JSON error response with a specific status code.
// Server errors are logged at error level, client errors at debug.
func GinError(c *gin.Context, statusCode int, message string) {
	log := zap.S()
	if statusCode >= http.StatusInternalServerError {
		log.Errorw("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "status", statusCode, "error", message)
	} else {
		log.Debugw("Request rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "status", statusCode, "error", message)
	}
	c.AbortWithStatusJSON(statusCode, APIError{Error: message})
}

// GinBadRequest sends a 400 Bad Request error response.
func GinBadRequest(c *gin.Context, message string) {
	GinError(c, http.StatusBadRequest, message)
}

// GinUnauthorized sends a 401 Unauthorized error response.
func GinUnauthorized(c *gin.Context, message string) {
	GinError(c, http.StatusUnauthorized, message)
}

// GinForbidden sends a 403 Forbidden error response.
func GinForbidden(c *gin.Context, message string) {
	GinError(c, http.StatusForbidden, message)
}

// GinNotFound sends a 404 Not Found error response.
func GinNotFound(c *gin.Context, message string) {
	GinError(c, http.StatusNotFound, message)
}

// GinConflict sends a 409 Conflict error response.
func GinConflict(c *gin.Context, message string) {
	GinError(c, http.StatusConflict, message)
}

// GinInternalServerError sends a 500 Internal Server Error response.
func GinInternalServerError(c *gin.Context, message string) {
	GinError(c, http.StatusInternalServerError, message)
}

// GinBadGateway sends a 502 when an upstream service failed.
func GinBadGateway(c *gin.Context, message string) {
	GinError(c, http.StatusBadGateway, message)
}

// GinServiceUnavailable sends a 503 when an optional integration is not configured.
func GinServiceUnavailable(c *gin.Context, message string) {
	GinError(c, http.StatusServiceUnavailable, message)
}
