package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Authenticate rejects requests without a valid access token.
func Authenticate(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, CodeUnauthenticated, "authorization header required")
			return
		}
		if !setPrincipal(c, jwt, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the principal when a token is sent, for routes that
// are public but show more to signed-in users. A bad token is still an
// error.
func OptionalAuth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok && !setPrincipal(c, jwt, token) {
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) *access.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*access.Principal)
	return p
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func setPrincipal(c *gin.Context, jwt *auth.JWTManager, token string) bool {
	claims, err := jwt.ValidateAccessToken(token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, auth.ErrTokenExpired) {
			msg = "token expired"
		}
		abort(c, http.StatusUnauthorized, CodeUnauthenticated, msg)
		return false
	}
	c.Set(principalKey, claims.Principal())
	return true
}
