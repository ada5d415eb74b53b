package service

import (
	"context"
	"strings"

	"DocPilot/internal/modules/rag/application/dto/respond"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/internal/modules/rag/infrastructure/pipeline"
	"DocPilot/pkg/xerr"
	"DocPilot/pkg/zlog"

	"go.uber.org/zap"
)

const DefaultScanLimit = 1000

// DocumentService 文档上传、列表与删除
type DocumentService interface {
	Upload(ctx context.Context, filename string, data []byte) (*respond.UploadRespond, error)
	List(ctx context.Context) (*respond.DocumentListRespond, error)
	Delete(ctx context.Context, documentID string) (*respond.DeleteRespond, error)
}

type documentServiceImpl struct {
	ingest    *pipeline.IngestPipeline
	vs        repository.VectorStore
	records   repository.IngestRecordRepository
	events    repository.DocumentEventPublisher
	scanLimit int
	maxBytes  int64
}

type DocumentServiceConfig struct {
	ScanLimit int
	MaxBytes  int64
	Records   repository.IngestRecordRepository
	Events    repository.DocumentEventPublisher
}

func NewDocumentService(ingest *pipeline.IngestPipeline, vs repository.VectorStore, cfg DocumentServiceConfig) DocumentService {
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = DefaultScanLimit
	}
	return &documentServiceImpl{
		ingest:    ingest,
		vs:        vs,
		records:   cfg.Records,
		events:    cfg.Events,
		scanLimit: cfg.ScanLimit,
		maxBytes:  cfg.MaxBytes,
	}
}

func (s *documentServiceImpl) Upload(ctx context.Context, filename string, data []byte) (*respond.UploadRespond, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, xerr.New(xerr.BadRequest, "filename is required")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, xerr.New(xerr.BadRequest, "file exceeds upload size limit")
	}

	res, err := s.ingest.Ingest(ctx, pipeline.IngestRequest{Filename: filename, Data: data})
	if err != nil {
		return nil, toCodeError(err)
	}
	return &respond.UploadRespond{
		Success:    true,
		DocumentID: res.DocumentID,
		Filename:   res.Filename,
		Chunks:     res.ChunkCount,
	}, nil
}

// List 只读取每个文档的首个 chunk；重复的首 chunk 保留第一条并告警
func (s *documentServiceImpl) List(ctx context.Context) (*respond.DocumentListRespond, error) {
	matches, err := s.vs.ScanByFilter(ctx, document.Filter{FirstChunkOnly: true}, s.scanLimit)
	if err != nil {
		return nil, toCodeError(document.NewProviderError("vector store scan", err))
	}

	out := &respond.DocumentListRespond{Documents: make([]respond.DocumentItem, 0, len(matches))}
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		meta := m.Metadata
		if !meta.IsFirstChunk || meta.DocumentID == "" {
			continue
		}
		if _, dup := seen[meta.DocumentID]; dup {
			zlog.Warn("duplicate first chunk", zap.String("document_id", meta.DocumentID), zap.String("chunk_id", m.ChunkID))
			continue
		}
		seen[meta.DocumentID] = struct{}{}

		doc := document.DocumentFromFirstChunk(meta)
		out.Documents = append(out.Documents, respond.DocumentItem{
			ID:         doc.ID,
			Filename:   doc.Filename,
			Chunks:     doc.TotalChunks,
			UploadedAt: doc.UploadedAt,
		})
	}
	return out, nil
}

func (s *documentServiceImpl) Delete(ctx context.Context, documentID string) (*respond.DeleteRespond, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, xerr.New(xerr.BadRequest, "document_id is required")
	}
	if err := s.vs.Delete(context.WithoutCancel(ctx), document.Filter{DocumentID: documentID}); err != nil {
		return nil, toCodeError(document.NewProviderError("vector store delete", err))
	}

	if s.records != nil {
		if err := s.records.MarkDeleted(ctx, documentID); err != nil {
			zlog.Warn("mark ingest record deleted failed", zap.String("document_id", documentID), zap.Error(err))
		}
	}
	if s.events != nil {
		ev := repository.DocumentEvent{Type: repository.DocumentEventDeleted, DocumentID: documentID}
		if err := s.events.PublishDocumentEvent(ctx, ev); err != nil {
			zlog.Warn("publish document event failed", zap.String("document_id", documentID), zap.Error(err))
		}
	}
	zlog.Info("document deleted", zap.String("document_id", documentID))
	return &respond.DeleteRespond{Success: true}, nil
}
