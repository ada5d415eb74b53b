package document

import (
	"fmt"
	"strings"
	"time"

	"DocPilot/pkg/util"
)

// Document 是 chunk 存储之上的派生视图，没有独立的存储记录：
// 列表数据只来自 IsFirstChunk 的那一个 chunk 的元数据。
// 首个 chunk 被删除或损坏时，该文档不会再出现在列表中。
type Document struct {
	ID          string
	Filename    string
	UploadedAt  string
	TotalChunks int
}

// Chunk 一个文档片段，写入后不可变
type Chunk struct {
	ID           string
	Text         string
	Embedding    []float32
	DocumentID   string
	ChunkIndex   int
	TotalChunks  int
	Filename     string
	UploadedAt   string
	IsFirstChunk bool
}

// RetrievedMatch 单次检索内有效的命中结果
type RetrievedMatch struct {
	ChunkID  string
	Score    float32
	Text     string
	Filename string
	Metadata Chunk
}

// Filter 向量库元数据过滤条件；零值表示不过滤
type Filter struct {
	DocumentID     string
	FirstChunkOnly bool
}

func (f Filter) IsEmpty() bool {
	return strings.TrimSpace(f.DocumentID) == "" && !f.FirstChunkOnly
}

// Matches 判断 chunk 是否满足过滤条件（内存实现与测试共用）
func (f Filter) Matches(c Chunk) bool {
	if id := strings.TrimSpace(f.DocumentID); id != "" && c.DocumentID != id {
		return false
	}
	if f.FirstChunkOnly && !c.IsFirstChunk {
		return false
	}
	return true
}

// NewDocumentID 生成 doc_<unix秒>_<6位随机后缀>
func NewDocumentID(now time.Time) string {
	return fmt.Sprintf("doc_%d_%s", now.Unix(), util.RandomSuffix(6))
}

// ChunkID 生成 "{document_id}_chunk_{index}"
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// FormatUploadedAt 统一的时间序列化格式（UTC, RFC3339）
func FormatUploadedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// BuildChunks 为一次摄入构造 chunk 记录：共享 document_id 与 uploaded_at，下标即顺序
func BuildChunks(documentID, filename, uploadedAt string, texts []string, vectors [][]float32) ([]Chunk, error) {
	if len(texts) != len(vectors) {
		return nil, fmt.Errorf("chunk/vector count mismatch: %d texts, %d vectors", len(texts), len(vectors))
	}
	out := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		out = append(out, Chunk{
			ID:           ChunkID(documentID, i),
			Text:         t,
			Embedding:    vectors[i],
			DocumentID:   documentID,
			ChunkIndex:   i,
			TotalChunks:  len(texts),
			Filename:     filename,
			UploadedAt:   uploadedAt,
			IsFirstChunk: i == 0,
		})
	}
	return out, nil
}

// DocumentFromFirstChunk 从首个 chunk 的元数据还原文档视图
func DocumentFromFirstChunk(c Chunk) Document {
	total := c.TotalChunks
	if total <= 0 {
		total = 1
	}
	return Document{ID: c.DocumentID, Filename: c.Filename, UploadedAt: c.UploadedAt, TotalChunks: total}
}
