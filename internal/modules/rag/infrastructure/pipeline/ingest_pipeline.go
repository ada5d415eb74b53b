package pipeline

import (
	"context"
	"fmt"
	"time"

	"DocPilot/internal/middleware/metrics"
	"DocPilot/internal/modules/rag/domain/repository"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/compose"
)

// TextExtractor 文件字节 + 文件名 → 纯文本
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// TextChunker 纯文本 → 有序片段
type TextChunker interface {
	Split(ctx context.Context, text string) ([]string, error)
}

type IngestRequest struct {
	Filename string
	Data     []byte
}

type IngestResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunks"`
	Stored     int    `json:"stored"`
	DurationMs int64  `json:"duration_ms"`
}

type IngestPipeline struct {
	extractor TextExtractor
	chunker   TextChunker
	embedder  embedding.Embedder
	vs        repository.VectorStore

	records repository.IngestRecordRepository
	events  repository.DocumentEventPublisher
	metrics *metrics.Metrics

	vectorDim    int
	embedTimeout time.Duration
	now          func() time.Time

	r compose.Runnable[*IngestRequest, *ingestOutcome]
}

type IngestOption func(*IngestPipeline)

// WithIngestRecords 写入摄入审计记录
func WithIngestRecords(repo repository.IngestRecordRepository) IngestOption {
	return func(p *IngestPipeline) { p.records = repo }
}

func WithIngestEvents(pub repository.DocumentEventPublisher) IngestOption {
	return func(p *IngestPipeline) { p.events = pub }
}

func WithIngestMetrics(m *metrics.Metrics) IngestOption {
	return func(p *IngestPipeline) { p.metrics = m }
}

func WithEmbedTimeout(d time.Duration) IngestOption {
	return func(p *IngestPipeline) {
		if d > 0 {
			p.embedTimeout = d
		}
	}
}

func WithClock(now func() time.Time) IngestOption {
	return func(p *IngestPipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewIngestPipeline(extractor TextExtractor, chunker TextChunker, embedder embedding.Embedder, vs repository.VectorStore, vectorDim int, opts ...IngestOption) (*IngestPipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}
	if chunker == nil {
		return nil, fmt.Errorf("chunker is nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if vs == nil {
		return nil, fmt.Errorf("vector store is nil")
	}
	p := &IngestPipeline{
		extractor:    extractor,
		chunker:      chunker,
		embedder:     embedder,
		vs:           vs,
		vectorDim:    vectorDim,
		embedTimeout: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Ingest 在与请求解耦的 context 上运行，客户端断开不会中断写入
func (p *IngestPipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	out, err := p.r.Invoke(context.WithoutCancel(ctx), &req)
	if err != nil {
		return nil, err
	}
	return out.Result, out.Err
}
