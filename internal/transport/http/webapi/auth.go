package webapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"abonado-server-go/internal/domain/auth"
	httptransport "abonado-server-go/internal/transport/http"
	"abonado-server-go/internal/platform/logging"
)

const (
	ctxKeyUsername  = "auth.username"
	ctxKeySessionID = "auth.session_id"
	ctxKeyToken     = "auth.token"
)

// AuthMiddleware 校验Bearer令牌并把会话信息放入请求上下文
func AuthMiddleware(manager *auth.Manager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httptransport.RespondError(c, http.StatusUnauthorized, "se requiere iniciar sesión", nil)
			c.Abort()
			return
		}

		info, err := manager.Verify(c.Request.Context(), token)
		if err != nil {
			logger.InfoTag("认证", "令牌校验失败: %s %s", c.Request.Method, c.Request.URL.Path)
			httptransport.RespondError(c, http.StatusUnauthorized, userMessage(err), nil)
			c.Abort()
			return
		}

		c.Set(ctxKeyUsername, info.Username)
		c.Set(ctxKeySessionID, info.SessionID)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// bearerToken 从Authorization头取令牌，兼容无Bearer前缀的写法
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(header)
}

// currentUsername 取认证中间件写入的用户名
func currentUsername(c *gin.Context) string {
	return c.GetString(ctxKeyUsername)
}

// currentToken 取认证中间件写入的原始令牌
func currentToken(c *gin.Context) string {
	return c.GetString(ctxKeyToken)
}
