package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gesoten/nft-game-gateway/internal/auth"
)

// subjectKey is the gin context key carrying the authenticated subject.
const subjectKey = "auth_subject"

// RequireAuth returns a gin middleware that rejects requests without a
// valid bearer token
func RequireAuth(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":      false,
				"message":      "authorization required",
				"message_code": http.StatusUnauthorized,
			})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := service.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":      false,
				"message":      "invalid token",
				"message_code": http.StatusUnauthorized,
			})
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// AuthSubject returns the authenticated subject of the request, if any
func AuthSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
