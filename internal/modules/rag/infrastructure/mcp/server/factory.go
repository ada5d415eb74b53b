package server

import (
	"net/http"

	"DocPilot/internal/modules/rag/application/service"
	mcpHandlers "DocPilot/internal/modules/rag/infrastructure/mcp/server/handlers"

	"github.com/mark3labs/mcp-go/server"
)

// ServerConfig MCP Server 配置
type ServerConfig struct {
	Name    string
	Version string
}

// NewDocumentMCPServer 创建并注册文档工具（list_documents / ask_documents）
func NewDocumentMCPServer(conf ServerConfig, docSvc service.DocumentService, chatSvc service.ChatService) *server.MCPServer {
	if conf.Name == "" {
		conf.Name = "docpilot"
	}
	if conf.Version == "" {
		conf.Version = "1.0.0"
	}
	s := server.NewMCPServer(
		conf.Name,
		conf.Version,
		server.WithToolCapabilities(true),
	)

	if docSvc != nil && chatSvc != nil {
		mcpHandlers.NewDocumentToolHandler(docSvc, chatSvc).RegisterTools(s)
	}
	return s
}

// NewHTTPHandler streamable HTTP 传输，挂载到 /mcp
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath("/mcp"))
}
