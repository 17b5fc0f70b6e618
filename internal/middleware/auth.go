package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys set by JWTAuth
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// JWTAuth validates an HS256 bearer token. With an empty secret every
// request passes, which is how local development runs.
func JWTAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	if secret == "" {
		logger.Warn("jwt secret not configured, REST endpoints are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Debug("rejected token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		userID := firstString(claims, "employeeId", "id", "user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(ContextUserID, userID)
		if role, ok := claims["role"].(string); ok {
			c.Set(ContextRole, role)
		}
		c.Next()
	}
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func extractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	if strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimPrefix(bearerToken, "Bearer ")
	}

	// browsers cannot set headers on a websocket upgrade
	return r.URL.Query().Get("token")
}
