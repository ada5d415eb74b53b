package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/internal/modules/rag/infrastructure/mq"
)

// KafkaDocumentEventPublisher 以 document_id 为 key 发布文档事件，同一文档的事件落在同一分区
type KafkaDocumentEventPublisher struct {
	pub   mq.Publisher
	topic string
}

var _ repository.DocumentEventPublisher = (*KafkaDocumentEventPublisher)(nil)

func NewKafkaDocumentEventPublisher(pub mq.Publisher, topic string) (*KafkaDocumentEventPublisher, error) {
	if pub == nil {
		return nil, errors.New("publisher is nil")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("event topic is empty")
	}
	return &KafkaDocumentEventPublisher{pub: pub, topic: topic}, nil
}

func (p *KafkaDocumentEventPublisher) PublishDocumentEvent(ctx context.Context, ev repository.DocumentEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.pub.Publish(ctx, mq.Message{
		Topic:   p.topic,
		Key:     []byte(ev.DocumentID),
		Value:   body,
		Headers: map[string]string{"event_type": ev.Type},
	})
	return err
}
