package pipeline

import (
	"context"
	"errors"
	"sync"

	"DocPilot/internal/modules/rag/domain/audit"
	"DocPilot/internal/modules/rag/domain/conversation"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"

	"github.com/cloudwego/eino/components/embedding"
)

// indexEmbedder 第 i 个文本得到 [1, i]；query 文本固定为 [1, 0]
type indexEmbedder struct {
	calls int
	err   error
	short bool
}

func (e *indexEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, 0, len(texts))
	for i := range texts {
		out = append(out, []float64{1, float64(i)})
	}
	if e.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

type memoryRecords struct {
	mu   sync.Mutex
	recs map[string]*audit.IngestRecord
	err  error
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{recs: map[string]*audit.IngestRecord{}}
}

func (m *memoryRecords) Save(ctx context.Context, rec *audit.IngestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *rec
	m.recs[rec.DocumentId] = &cp
	return nil
}

func (m *memoryRecords) MarkDeleted(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recs[documentID]; ok {
		r.Status = audit.IngestStatusDeleted
	}
	return nil
}

func (m *memoryRecords) get(documentID string) *audit.IngestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recs[documentID]
}

type recordingEvents struct {
	events []repository.DocumentEvent
	err    error
}

func (r *recordingEvents) PublishDocumentEvent(ctx context.Context, ev repository.DocumentEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

// stubStore Query 返回预置结果并记录请求的 topK
type stubStore struct {
	matches  []document.RetrievedMatch
	err      error
	lastTopK int
}

func (s *stubStore) Upsert(ctx context.Context, chunks []document.Chunk) *document.UpsertResult {
	return &document.UpsertResult{Total: len(chunks), Stored: len(chunks)}
}

func (s *stubStore) Query(ctx context.Context, vector []float32, topK int, filter document.Filter) ([]document.RetrievedMatch, error) {
	s.lastTopK = topK
	return s.matches, s.err
}

func (s *stubStore) Delete(ctx context.Context, filter document.Filter) error {
	return errors.New("not implemented")
}

func (s *stubStore) ScanByFilter(ctx context.Context, filter document.Filter, limit int) ([]document.RetrievedMatch, error) {
	return nil, errors.New("not implemented")
}

type recordingGenerator struct {
	question string
	context  string
	history  []conversation.Turn
	answer   string
	err      error
}

func (g *recordingGenerator) Generate(ctx context.Context, question, contextBlock string, history []conversation.Turn) (string, error) {
	g.question, g.context, g.history = question, contextBlock, history
	return g.answer, g.err
}
