package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/eventcert/internal/auth"
)

// AdminAuth middleware checks for the admin token and, when a TOTP secret
// is configured, a current one-time code.
func AdminAuth(adminToken, totpSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Admin token required",
			})
			c.Abort()
			return
		}

		if !auth.TokensEqual(token, adminToken) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Invalid admin token",
			})
			c.Abort()
			return
		}

		if totpSecret != "" {
			valid, err := auth.ValidateTOTP(totpSecret, c.GetHeader("X-Admin-TOTP"))
			if err != nil || !valid {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "unauthorized",
					"message": "Invalid TOTP code",
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
