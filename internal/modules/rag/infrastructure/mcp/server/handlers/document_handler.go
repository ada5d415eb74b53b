package handlers

import (
	"context"
	"fmt"
	"strings"

	"DocPilot/internal/modules/rag/application/dto/request"
	"DocPilot/internal/modules/rag/application/dto/respond"
	"DocPilot/internal/modules/rag/application/service"
	"DocPilot/pkg/zlog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// DocumentToolHandler 文档工具处理器，复用 HTTP 同一套 service
type DocumentToolHandler struct {
	docSvc  service.DocumentService
	chatSvc service.ChatService
}

func NewDocumentToolHandler(docSvc service.DocumentService, chatSvc service.ChatService) *DocumentToolHandler {
	return &DocumentToolHandler{docSvc: docSvc, chatSvc: chatSvc}
}

// RegisterTools 注册所有文档相关工具到 Server
func (h *DocumentToolHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents that have been uploaded and indexed"),
	), h.handleListDocuments)

	s.AddTool(mcp.NewTool("ask_documents",
		mcp.WithDescription("Answer a question using the uploaded documents as context"),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithNumber("top_k", mcp.Description("Number of chunks to retrieve (1-50, default 5)")),
	), h.handleAskDocuments)
}

func (h *DocumentToolHandler) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.docSvc.List(ctx)
	if err != nil {
		zlog.Error("list_documents failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("list documents failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatDocuments(list.Documents)), nil
}

func (h *DocumentToolHandler) handleAskDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("invalid arguments format, expected map"), nil
	}
	question, _ := args["question"].(string)
	if strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	topK := 0
	if v, ok := args["top_k"].(float64); ok {
		topK = int(v)
	}

	res, err := h.chatSvc.Chat(ctx, request.ChatRequest{Message: question, TopK: topK})
	if err != nil {
		zlog.Error("ask_documents failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("ask documents failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(res)), nil
}

func formatDocuments(docs []respond.DocumentItem) string {
	if len(docs) == 0 {
		return "No documents have been uploaded."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d documents:\n", len(docs)))
	for i, d := range docs {
		sb.WriteString(fmt.Sprintf("%d. %s (ID: %s, chunks: %d, uploaded: %s)\n", i+1, d.Filename, d.ID, d.Chunks, d.UploadedAt))
	}
	return sb.String()
}

func formatAnswer(res *respond.ChatRespond) string {
	if len(res.Sources) == 0 {
		return res.Answer
	}
	var sb strings.Builder
	sb.WriteString(res.Answer)
	sb.WriteString("\n\nSources:\n")
	for _, src := range res.Sources {
		sb.WriteString(fmt.Sprintf("- %s (score %.2f)\n", src.Filename, src.Score))
	}
	return sb.String()
}
