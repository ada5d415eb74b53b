package request

import "DocPilot/internal/modules/rag/domain/conversation"

// ChatRequest POST /api/chat 请求体
type ChatRequest struct {
	Message string              `json:"message"`
	History []conversation.Turn `json:"history,omitempty"` // 调用方维护的历史，服务端只取最近几轮
	TopK    int                 `json:"top_k,omitempty"`   // 可选覆盖，范围 1-50
}
