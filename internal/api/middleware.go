package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/service"
	"github.com/sirupsen/logrus"
)

const identityKey = "identity"

// AuthMiddleware returns a Gin middleware for authentication
func AuthMiddleware(svc service.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the bearer token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, logger, apperr.Unauthorized("authentication required"))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, logger, apperr.Unauthorized("invalid token format"))
			return
		}

		identity, err := svc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			abortWithError(c, logger, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// currentIdentity returns the identity stored by AuthMiddleware
func currentIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}

// RequestLogger logs every request once it has been served
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if identity, ok := currentIdentity(c); ok {
			fields["userId"] = identity.UserID
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request served")
		}
	}
}

// CORSMiddleware allows browser clients from the configured origins
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			allowAll = true
		}
	}

	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		for _, origin := range origins {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, trimmed)
			}
		}
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
