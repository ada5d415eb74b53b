package ssl

import (
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// TlsHandler 将明文请求重定向到 https://host:port。
// 中间件只构造一次，isDevelopment 为 true 时 secure 跳过重定向（本地调试）。
func TlsHandler(host string, port int, isDevelopment bool) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:   true,
		SSLHost:       net.JoinHostPort(host, strconv.Itoa(port)),
		IsDevelopment: isDevelopment,
	})
	return func(c *gin.Context) {
		// Process 出错时已经写入了重定向响应，只需中止 gin 处理链
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
