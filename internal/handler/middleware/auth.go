package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"booking-engine/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const ctxPrincipalKey = "service_principal"

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

// RequireService accepts only bearer service tokens carrying the given scope.
func (m *AuthMiddleware) RequireService(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "unauthorized", "message": "Service token required"},
			})
			c.Abort()
			return
		}

		principal, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "unauthorized", "message": "Invalid or expired token"},
			})
			c.Abort()
			return
		}

		if !principal.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "forbidden", "message": "Insufficient scope"},
			})
			c.Abort()
			return
		}

		c.Set(ctxPrincipalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

func GetPrincipal(c *gin.Context) (*usecase.ServicePrincipal, bool) {
	v, exists := c.Get(ctxPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*usecase.ServicePrincipal)
	return p, ok
}
