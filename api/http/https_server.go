package http

import (
	nethttp "net/http"

	"DocPilot/internal/config"
	"DocPilot/internal/middleware/metrics"
	ragHandler "DocPilot/internal/modules/rag/interface/http"
	"DocPilot/pkg/ssl"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps 路由所需的全部 handler，由 main 组装后注入
type RouterDeps struct {
	Documents *ragHandler.DocumentHandler
	Chat      *ragHandler.ChatHandler
	Metrics   *metrics.Metrics
	MCP       nethttp.Handler // 为 nil 时不挂载 /mcp
}

func NewRouter(conf *config.Config, deps RouterDeps) *gin.Engine {
	if conf.MainConfig.Mode != "" {
		gin.SetMode(conf.MainConfig.Mode)
	}
	ge := gin.New()
	ge.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", "Mcp-Session-Id"}
	ge.Use(cors.New(corsConfig))

	if conf.MainConfig.TLSRedirect {
		ge.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port, gin.Mode() == gin.DebugMode))
	}
	if deps.Metrics != nil {
		ge.Use(deps.Metrics.Middleware())
		ge.GET("/metrics", deps.Metrics.Handler())
	}

	ragHandler.RegisterRoutes(ge, deps.Documents, deps.Chat)

	if deps.MCP != nil {
		h := gin.WrapH(deps.MCP)
		ge.GET("/mcp", h)
		ge.POST("/mcp", h)
		ge.DELETE("/mcp", h)
	}
	return ge
}
