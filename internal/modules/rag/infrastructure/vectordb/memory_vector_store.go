package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"
)

// MemoryVectorStore 进程内向量库，用于本地运行和测试。
// 以 chunk ID 为主键，重复写入覆盖；按插入顺序保存以保证结果稳定。
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dim       int
	batchSize int
	order     []string
	chunks    map[string]document.Chunk
	failBatch func(index int) error
}

var _ repository.VectorStore = (*MemoryVectorStore)(nil)

func NewMemoryVectorStore(dim, batchSize int) *MemoryVectorStore {
	return &MemoryVectorStore{dim: dim, batchSize: batchSize, chunks: make(map[string]document.Chunk)}
}

// FailBatchesWith 注入批次写入错误，用于模拟部分失败
func (s *MemoryVectorStore) FailBatchesWith(fn func(index int) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatch = fn
}

func (s *MemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *MemoryVectorStore) Upsert(ctx context.Context, chunks []document.Chunk) *document.UpsertResult {
	batchIndex := 0
	return upsertInBatches(ctx, chunks, s.batchSize, func(ctx context.Context, batch []document.Chunk) error {
		idx := batchIndex
		batchIndex++
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failBatch != nil {
			if err := s.failBatch(idx); err != nil {
				return err
			}
		}
		for _, c := range batch {
			if c.ID == "" {
				return errors.New("chunk missing ID")
			}
			if s.dim > 0 && len(c.Embedding) != s.dim {
				return fmt.Errorf("vector dim mismatch for id=%s, got=%d want=%d", c.ID, len(c.Embedding), s.dim)
			}
		}
		for _, c := range batch {
			if _, ok := s.chunks[c.ID]; !ok {
				s.order = append(s.order, c.ID)
			}
			cp := c
			cp.Embedding = append([]float32(nil), c.Embedding...)
			s.chunks[c.ID] = cp
		}
		return nil
	})
}

func (s *MemoryVectorStore) Query(ctx context.Context, vector []float32, topK int, filter document.Filter) ([]document.RetrievedMatch, error) {
	if s.dim > 0 && len(vector) != s.dim {
		return nil, fmt.Errorf("vector dim mismatch, got=%d want=%d", len(vector), s.dim)
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	matches := make([]document.RetrievedMatch, 0, len(s.order))
	for _, id := range s.order {
		c := s.chunks[id]
		if !filter.Matches(c) {
			continue
		}
		matches = append(matches, toMatch(c, cosine(vector, c.Embedding)))
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryVectorStore) Delete(ctx context.Context, filter document.Filter) error {
	if filter.IsEmpty() {
		return errors.New("delete requires a non-empty filter")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		if filter.Matches(s.chunks[id]) {
			delete(s.chunks, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

// ScanByFilter 零向量探测：所有分数为 0，结果按插入顺序返回
func (s *MemoryVectorStore) ScanByFilter(ctx context.Context, filter document.Filter, limit int) ([]document.RetrievedMatch, error) {
	probe := make([]float32, s.dim)
	if s.dim <= 0 {
		probe = nil
	}
	if limit <= 0 {
		limit = 1000
	}
	return s.Query(ctx, probe, limit, filter)
}

func toMatch(c document.Chunk, score float32) document.RetrievedMatch {
	meta := c
	meta.Embedding = nil
	return document.RetrievedMatch{ChunkID: c.ID, Score: score, Text: c.Text, Filename: c.Filename, Metadata: meta}
}

// cosine 任一向量为零向量时返回 0
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
