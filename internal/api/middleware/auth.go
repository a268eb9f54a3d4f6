package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/pkg/response"
)

const userIDKey = "user_id"

// Authenticate 解析 Bearer token 并注入用户身份。
// 身份解析失败一律按匿名处理（浏览计数侧宁少勿多），
// 需要强制登录的路由再叠加 RequireUser。
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err == nil && token.Valid && claims.Subject != "" {
			c.Set(userIDKey, claims.Subject)
		}
		c.Next()
	}
}

// CurrentUser 返回当前请求用户ID；匿名返回空串
func CurrentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireUser 写路径强制登录
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 运维端点需要 admin 角色
func RequireAdmin(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := CurrentUser(c)
		if uid == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		u, err := userRepo.GetByID(c.Request.Context(), uid)
		if err != nil || u.Role != "admin" {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GenerateToken 签发 HS256 token（subject = 用户ID）
func GenerateToken(secret, userID string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
