package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/conversation"
	"DocPilot/internal/modules/rag/domain/document"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	contextTemplate = "Here is relevant information from the user's documents:\n\n%s\n\nUse this to answer the question. Cite sources when appropriate."
	NoContextNotice = "No relevant documents were found. Let the user know they should upload relevant materials, but still try to help with general knowledge."
)

type GeneratorConfig struct {
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	HistoryTurns int
	Timeout      time.Duration
}

// AnswerGenerator 组装提示词并调用对话模型
type AnswerGenerator struct {
	model model.BaseChatModel
	cfg   GeneratorConfig
}

func NewAnswerGenerator(cm model.BaseChatModel, cfg GeneratorConfig) *AnswerGenerator {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &AnswerGenerator{model: cm, cfg: cfg}
}

// BuildMessages 顺序：系统提示 → 上下文（或无文档提示）→ 最近历史 → 问题
func (g *AnswerGenerator) BuildMessages(question, contextBlock string, history []conversation.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, g.cfg.HistoryTurns+3)
	if sp := strings.TrimSpace(g.cfg.SystemPrompt); sp != "" {
		msgs = append(msgs, schema.SystemMessage(sp))
	}
	if strings.TrimSpace(contextBlock) != "" {
		msgs = append(msgs, schema.SystemMessage(fmt.Sprintf(contextTemplate, contextBlock)))
	} else {
		msgs = append(msgs, schema.SystemMessage(NoContextNotice))
	}
	for _, t := range conversation.LastTurns(history, g.cfg.HistoryTurns) {
		msgs = append(msgs, &schema.Message{Role: roleOf(t), Content: t.Content})
	}
	msgs = append(msgs, schema.UserMessage(question))
	return msgs
}

func (g *AnswerGenerator) Generate(ctx context.Context, question, contextBlock string, history []conversation.Turn) (string, error) {
	if g.model == nil {
		return "", document.NewProviderError("generate", fmt.Errorf("chat model not configured"))
	}
	msgs := g.BuildMessages(question, contextBlock, history)

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var opts []model.Option
	if g.cfg.Temperature > 0 {
		opts = append(opts, model.WithTemperature(g.cfg.Temperature))
	}
	if g.cfg.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(g.cfg.MaxTokens))
	}
	out, err := g.model.Generate(callCtx, msgs, opts...)
	if err != nil {
		return "", document.NewProviderError("generate", err)
	}
	if out == nil {
		return "", document.NewProviderError("generate", fmt.Errorf("empty response"))
	}
	return out.Content, nil
}

func roleOf(t conversation.Turn) schema.RoleType {
	switch t.NormalizedRole() {
	case conversation.RoleAssistant:
		return schema.Assistant
	case conversation.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
