package repository

import (
	"context"
	"time"
)

const (
	DocumentEventIngested = "document.ingested"
	DocumentEventPartial  = "document.partial"
	DocumentEventDeleted  = "document.deleted"
)

// DocumentEvent 文档生命周期事件
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename,omitempty"`
	Chunks     int       `json:"chunks,omitempty"`
	Stored     int       `json:"stored,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type DocumentEventPublisher interface {
	PublishDocumentEvent(ctx context.Context, ev DocumentEvent) error
}
