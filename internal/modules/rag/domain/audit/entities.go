package audit

import "time"

const (
	IngestStatusSucceeded = "succeeded"
	IngestStatusPartial   = "partial"
	IngestStatusFailed    = "failed"
	IngestStatusDeleted   = "deleted"
)

// IngestRecord 一次摄入的审计记录，仅用于运维排查；文档列表不读取此表
type IngestRecord struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentId   string    `gorm:"column:document_id;type:varchar(64);not null;uniqueIndex:uniq_ingest_document"`
	Filename     string    `gorm:"column:filename;type:varchar(512);not null"`
	TotalChunks  int       `gorm:"column:total_chunks;type:int;not null"`
	StoredChunks int       `gorm:"column:stored_chunks;type:int;not null"`
	Status       string    `gorm:"column:status;type:varchar(16);not null;index:idx_ingest_status"`
	LastError    string    `gorm:"column:last_error;type:varchar(1024)"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (IngestRecord) TableName() string { return "document_ingest_record" }
