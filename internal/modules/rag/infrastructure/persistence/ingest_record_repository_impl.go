package persistence

import (
	"context"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/audit"
	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/pkg/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxLastErrorRunes = 1024

type ingestRecordRepositoryImpl struct {
	db *gorm.DB
}

func NewIngestRecordRepository(db *gorm.DB) repository.IngestRecordRepository {
	return &ingestRecordRepositoryImpl{db: db}
}

// Save 以 document_id 为唯一键写入，重复时覆盖统计字段
func (r *ingestRecordRepositoryImpl) Save(ctx context.Context, rec *audit.IngestRecord) error {
	if rec == nil {
		return nil
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.LastError = lastErrorText(rec.LastError)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"filename", "total_chunks", "stored_chunks", "status", "last_error", "updated_at"}),
	}).Create(rec).Error
}

func (r *ingestRecordRepositoryImpl) MarkDeleted(ctx context.Context, documentID string) error {
	updates := map[string]any{"status": audit.IngestStatusDeleted, "updated_at": time.Now()}
	return r.db.WithContext(ctx).Model(&audit.IngestRecord{}).Where("document_id = ?", documentID).Updates(updates).Error
}

// lastErrorText 按字符截断错误信息，避免切断多字节字符写入非法 UTF-8
func lastErrorText(s string) string {
	return util.TruncateRunes(strings.TrimSpace(s), maxLastErrorRunes, "")
}
