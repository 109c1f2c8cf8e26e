package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders sets response headers suited to a JSON API carrying
// patient data.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		// Responses may contain PHI.
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
