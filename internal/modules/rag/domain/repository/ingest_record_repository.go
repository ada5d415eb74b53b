package repository

import (
	"context"

	"DocPilot/internal/modules/rag/domain/audit"
)

type IngestRecordRepository interface {
	Save(ctx context.Context, rec *audit.IngestRecord) error
	MarkDeleted(ctx context.Context, documentID string) error
}
