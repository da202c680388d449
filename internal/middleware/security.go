package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 为每个响应写入安全相关的响应头
func SecurityHeaders(csp, cookieDirectives string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if csp != "" {
			h.Set("Content-Security-Policy", csp)
		}
		if cookieDirectives != "" {
			h.Add("Set-Cookie", cookieDirectives)
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
