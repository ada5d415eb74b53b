package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DocPilot/internal/middleware/metrics"
	"DocPilot/internal/modules/rag/domain/conversation"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/compose"
)

const (
	DefaultTopK     = 5
	MaxTopK         = 50
	DefaultMinScore = float32(0.7)

	sourceDelimiter = "\n\n---\n\n"
	previewRunes    = 200
)

// Generator 根据上下文、历史与问题生成回答
type Generator interface {
	Generate(ctx context.Context, question, contextBlock string, history []conversation.Turn) (string, error)
}

type RetrieveRequest struct {
	Question string
	History  []conversation.Turn
	TopK     int // <=0 使用默认值，超过上限按上限处理
}

// Source 回答引用的片段，Text 为截断后的预览
type Source struct {
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
	Filename string  `json:"filename"`
}

type RetrieveResult struct {
	QueryID    string
	Question   string
	Answer     string
	Sources    []Source
	Matches    []document.RetrievedMatch
	TotalHits  int
	Dropped    int
	IsEmpty    bool
	DurationMs int64
}

type RetrievePipeline struct {
	embedder  embedding.Embedder
	vs        repository.VectorStore
	generator Generator
	metrics   *metrics.Metrics

	topK         int
	minScore     float32
	vectorDim    int
	embedTimeout time.Duration

	r compose.Runnable[*RetrieveRequest, *retrieveOutcome]
}

type RetrieveConfig struct {
	TopK         int
	MinScore     float32
	VectorDim    int
	EmbedTimeout time.Duration
	Metrics      *metrics.Metrics
}

func NewRetrievePipeline(embedder embedding.Embedder, vs repository.VectorStore, generator Generator, cfg RetrieveConfig) (*RetrievePipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if vs == nil {
		return nil, fmt.Errorf("vector store is nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is nil")
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	// 未设置阈值时沿用默认 0.7，不允许静默关闭过滤
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	p := &RetrievePipeline{
		embedder:     embedder,
		vs:           vs,
		generator:    generator,
		metrics:      cfg.Metrics,
		topK:         normalizeTopK(cfg.TopK),
		minScore:     cfg.MinScore,
		vectorDim:    cfg.VectorDim,
		embedTimeout: cfg.EmbedTimeout,
	}
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

func (p *RetrievePipeline) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResult, error) {
	out, err := p.r.Invoke(context.WithoutCancel(ctx), &req)
	if err != nil {
		return nil, err
	}
	return out.Result, out.Err
}

// normalizeTopK 默认 5，范围 1-50
func normalizeTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// FilterByScore 丢弃 score < minScore 的命中，保持原有排序
func FilterByScore(matches []document.RetrievedMatch, minScore float32) []document.RetrievedMatch {
	kept := make([]document.RetrievedMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// BuildContext 按召回顺序拼接 "[Source: 文件名]\n正文"，块之间用分隔符
func BuildContext(matches []document.RetrievedMatch) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("[Source: %s]\n%s", m.Filename, m.Text))
	}
	return strings.Join(blocks, sourceDelimiter)
}
