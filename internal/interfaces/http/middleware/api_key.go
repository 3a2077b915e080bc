package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sentinel/internal/application/dto"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/logger"
)

// RequireAPIKey protects routes with a shared secret carried in X-API-Key.
// An empty key disables the check.
func RequireAPIKey(apiKey string, log logger.Logger) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) { c.Next() }
	}
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		provided := c.GetHeader(constants.HeaderAPIKey)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			log.Warn(c.Request.Context(), "Rejected request with invalid API key",
				logger.Fields{"path": c.Request.URL.Path, "client_ip": c.ClientIP()})
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.ErrorResponse(errors.ErrUnauthorized("missing or invalid API key"), c.GetString(string(constants.ContextKeyTraceID))))
			return
		}
		c.Next()
	}
}
