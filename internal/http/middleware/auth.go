package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GatewayAuthMiddleware проверяет статический ключ шлюза в заголовке
// Authorization: Bearer <key>. Сервис обслуживает доверенный чат-шлюз,
// а не конечных пользователей, поэтому ключ один на установку.
func GatewayAuthMiddleware(gatewayKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "неверный формат заголовка Authorization"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(gatewayKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "неверный ключ шлюза"})
			return
		}

		c.Next()
	}
}
