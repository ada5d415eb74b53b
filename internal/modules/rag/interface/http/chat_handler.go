package http

import (
	"DocPilot/internal/modules/rag/application/dto/request"
	"DocPilot/internal/modules/rag/application/service"
	"DocPilot/pkg/back"
	"DocPilot/pkg/xerr"
	"DocPilot/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler 文档问答
type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Chat 处理问答请求
//
// 路由: POST /api/chat
// 请求体: ChatRequest
// 响应体: ChatRespond
func (h *ChatHandler) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("invalid chat request", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.chatSvc.Chat(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("chat failed", zap.Error(err))
	}
	back.Result(c, data, err)
}
