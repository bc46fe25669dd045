package jwt

import (
	"strings"

	"time-capsule/pkg/logger"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextIdentityKey 档案ID在gin.Context中的键名
	ContextIdentityKey = logger.ContextIdentityKey
	// ContextClaimsKey JWT声明在gin.Context中的键名
	ContextClaimsKey = "jwt_claims"
)

// BearerToken 从请求中提取令牌
// 优先 Authorization: Bearer <token>，WebSocket 场景回退到 ?token= 或子协议头
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
}

// AuthMiddleware JWT认证中间件
// 验证token并将档案ID存入gin.Context，下游通过 Identity 显式取出
func (s *JWTService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少Authorization请求头")
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "Authorization格式错误，应为Bearer <token>")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			response.Unauthorized(c, "token不能为空")
			c.Abort()
			return
		}

		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			logger.Warn("JWT验证失败",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			response.Unauthorized(c, "token无效或已过期")
			c.Abort()
			return
		}

		id, _ := claims.ProfileID()
		c.Set(ContextIdentityKey, id)
		c.Set(ContextClaimsKey, claims)

		c.Next()
	}
}

// Identity 从gin.Context中获取当前档案ID
func Identity(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextIdentityKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// GetClaims 从gin.Context中获取JWT声明
func GetClaims(c *gin.Context) *CustomClaims {
	if claims, exists := c.Get(ContextClaimsKey); exists {
		if cc, ok := claims.(*CustomClaims); ok {
			return cc
		}
	}
	return nil
}
