package http

import "github.com/gin-gonic/gin"

// RegisterRoutes 挂载 /api 下的全部路由
func RegisterRoutes(r gin.IRouter, docH *DocumentHandler, chatH *ChatHandler) {
	api := r.Group("/api")
	api.POST("/upload", docH.Upload)
	api.POST("/chat", chatH.Chat)
	api.GET("/documents", docH.List)
	api.DELETE("/documents/:document_id", docH.Delete)
	api.GET("/health", Health)
}
