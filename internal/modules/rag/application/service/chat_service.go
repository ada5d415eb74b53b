package service

import (
	"context"

	"DocPilot/internal/modules/rag/application/dto/request"
	"DocPilot/internal/modules/rag/application/dto/respond"
	"DocPilot/internal/modules/rag/infrastructure/pipeline"
)

// ChatService 基于已上传文档的问答
type ChatService interface {
	Chat(ctx context.Context, req request.ChatRequest) (*respond.ChatRespond, error)
}

type chatServiceImpl struct {
	retrieve *pipeline.RetrievePipeline
}

func NewChatService(retrieve *pipeline.RetrievePipeline) ChatService {
	return &chatServiceImpl{retrieve: retrieve}
}

func (s *chatServiceImpl) Chat(ctx context.Context, req request.ChatRequest) (*respond.ChatRespond, error) {
	res, err := s.retrieve.Retrieve(ctx, pipeline.RetrieveRequest{
		Question: req.Message,
		History:  req.History,
		TopK:     req.TopK,
	})
	if err != nil {
		return nil, toCodeError(err)
	}
	out := &respond.ChatRespond{Answer: res.Answer, Sources: make([]respond.SourceItem, 0, len(res.Sources))}
	for _, src := range res.Sources {
		out.Sources = append(out.Sources, respond.SourceItem{Text: src.Text, Score: src.Score, Filename: src.Filename})
	}
	return out, nil
}
