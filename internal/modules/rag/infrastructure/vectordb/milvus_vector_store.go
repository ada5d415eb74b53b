package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"
)

// MilvusVectorStore 把 domain 的 repository.VectorStore 映射到 MilvusStore。
// 列表扫描走 Milvus 原生 Query，不再用零向量探测。
type MilvusVectorStore struct {
	store     *MilvusStore
	batchSize int
	timeout   time.Duration
}

var _ repository.VectorStore = (*MilvusVectorStore)(nil)

func NewMilvusVectorStore(store *MilvusStore, batchSize int, timeout time.Duration) (*MilvusVectorStore, error) {
	if store == nil {
		return nil, fmt.Errorf("milvus store is nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MilvusVectorStore{store: store, batchSize: batchSize, timeout: timeout}, nil
}

func (s *MilvusVectorStore) Upsert(ctx context.Context, chunks []document.Chunk) *document.UpsertResult {
	return upsertInBatches(ctx, chunks, s.batchSize, func(ctx context.Context, batch []document.Chunk) error {
		rows := make([]UpsertRow, 0, len(batch))
		for _, c := range batch {
			rows = append(rows, UpsertRow{
				ID:           c.ID,
				Vector:       c.Embedding,
				DocumentID:   c.DocumentID,
				Filename:     c.Filename,
				ChunkIndex:   int64(c.ChunkIndex),
				TotalChunks:  int64(c.TotalChunks),
				UploadedAt:   c.UploadedAt,
				IsFirstChunk: c.IsFirstChunk,
				Content:      c.Text,
			})
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.store.Upsert(callCtx, rows)
	})
}

func (s *MilvusVectorStore) Query(ctx context.Context, vector []float32, topK int, filter document.Filter) ([]document.RetrievedMatch, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	hits, err := s.store.Search(callCtx, vector, topK, FilterExpr(filter))
	if err != nil {
		return nil, err
	}
	return toMatches(hits), nil
}

func (s *MilvusVectorStore) Delete(ctx context.Context, filter document.Filter) error {
	if filter.IsEmpty() {
		return errors.New("delete requires a non-empty filter")
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.DeleteByExpr(callCtx, FilterExpr(filter))
}

func (s *MilvusVectorStore) ScanByFilter(ctx context.Context, filter document.Filter, limit int) ([]document.RetrievedMatch, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	hits, err := s.store.Query(callCtx, FilterExpr(filter), limit)
	if err != nil {
		return nil, err
	}
	return toMatches(hits), nil
}

// FilterExpr 把 Filter 翻译成 Milvus 布尔表达式；空 Filter 返回空串
func FilterExpr(f document.Filter) string {
	var parts []string
	if id := strings.TrimSpace(f.DocumentID); id != "" {
		parts = append(parts, FieldDocumentID+" == "+quoteExpr(id))
	}
	if f.FirstChunkOnly {
		parts = append(parts, FieldIsFirstChunk+" == true")
	}
	return strings.Join(parts, " && ")
}

func toMatches(hits []SearchHit) []document.RetrievedMatch {
	out := make([]document.RetrievedMatch, 0, len(hits))
	for _, h := range hits {
		meta := document.Chunk{
			ID:           h.ID,
			Text:         h.Content,
			DocumentID:   h.DocumentID,
			ChunkIndex:   int(h.ChunkIndex),
			TotalChunks:  int(h.TotalChunks),
			Filename:     h.Filename,
			UploadedAt:   h.UploadedAt,
			IsFirstChunk: h.IsFirstChunk,
		}
		out = append(out, document.RetrievedMatch{
			ChunkID:  h.ID,
			Score:    h.Score,
			Text:     h.Content,
			Filename: h.Filename,
			Metadata: meta,
		})
	}
	return out
}
