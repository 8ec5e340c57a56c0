// Package middleware holds auth middleware specific to the engine's API
// surface. Generic middleware (logging, rate limiting, security headers)
// lives in platform/httpkit.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/platform/httpkit"
)

// HeaderAPIKey carries workspace API keys on programmatic requests.
const HeaderAPIKey = "X-API-Key"

// APIKeyVerifier resolves an API key to the workspace it belongs to.
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, token string) (uuid.UUID, error)
}

// Auth returns middleware accepting either a workspace API key or a
// dashboard JWT. API keys scope the request to their workspace directly;
// everything else falls through to bearer token verification.
func Auth(verifier APIKeyVerifier, jwtAuth gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		if key == "" || verifier == nil {
			jwtAuth(c)
			return
		}

		workspaceID, err := verifier.VerifyAPIKey(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(httpkit.ContextWorkspaceIDKey, workspaceID)
		c.Next()
	}
}
