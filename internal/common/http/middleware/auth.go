package middleware

import (
	"context"
	"strings"

	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, token string) (int64, error)
}

// AuthMiddleware rejects requests without a valid token and records the user id.
// With allowQueryToken a "token" query parameter is accepted when no header is sent,
// which browsers need for websocket upgrades.
func AuthMiddleware(auth Authenticator, allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		token := BearerToken(c)
		if token == "" && allowQueryToken {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			response.AbortWithErrorCode(c, pkgerrors.Unauthorized, "missing bearer token")
			return
		}

		userID, err := auth.AuthenticateUser(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		SetUserID(c, userID)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
