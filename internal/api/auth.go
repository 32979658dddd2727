package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// BasicAuth 为整个站点加一个访问密码；/health 及 public 中的路径免认证
func BasicAuth(user, pass string, public ...string) gin.HandlerFunc {
	wantUser, wantPass := []byte(user), []byte(pass)
	public = append(public, "/health")

	return func(c *gin.Context) {
		if lo.Contains(public, c.Request.URL.Path) {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if ok && subtle.ConstantTimeCompare([]byte(u), wantUser) == 1 &&
			subtle.ConstantTimeCompare([]byte(p), wantPass) == 1 {
			c.Next()
			return
		}
		c.Header("WWW-Authenticate", `Basic realm="TrendingDigest"`)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}
