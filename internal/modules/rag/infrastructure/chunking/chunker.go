package chunking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	StrategyBoundary  = "boundary"
	StrategyRecursive = "recursive"

	DefaultChunkSize = 1000
)

// Chunker 将文本切分为带重叠的有序片段。
// 长度与下标均按 rune 计算，多字节字符不会被截断。
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
	useRecursive bool

	initOnce      sync.Once
	initErr       error
	recursiveImpl document.Transformer
}

// NewChunker 创建段落/句子边界切分器
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{ChunkSize: size, ChunkOverlap: overlap}
}

func NewRecursiveChunker(size, overlap int) *Chunker {
	c := NewChunker(size, overlap)
	c.useRecursive = true
	return c
}

// NewChunkerForStrategy 按配置名选择切分策略，空串为 boundary
func NewChunkerForStrategy(strategy string, size, overlap int) (*Chunker, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyBoundary:
		return NewChunker(size, overlap), nil
	case StrategyRecursive:
		return NewRecursiveChunker(size, overlap), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy: %s", strategy)
	}
}

func (c *Chunker) Strategy() string {
	if c.useRecursive {
		return StrategyRecursive
	}
	return StrategyBoundary
}

// Split 切分文本；空白输入返回空切片
func (c *Chunker) Split(ctx context.Context, text string) ([]string, error) {
	text = normalize(text)
	if text == "" {
		return []string{}, nil
	}
	if c.useRecursive {
		return c.splitRecursive(ctx, text)
	}
	return c.splitBoundary(text), nil
}

func normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
}

func (c *Chunker) splitBoundary(text string) []string {
	runes := []rune(text)
	total := len(runes)
	if total <= c.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < total {
		end := start + c.ChunkSize

		// 优先在后半窗口内找段落边界，其次句子边界
		if end < total {
			from := start + c.ChunkSize/2
			if b := lastIndexIn(runes, from, end, "\n\n"); b > start {
				end = b
			} else if b := lastIndexIn(runes, from, end, ". "); b > start {
				end = b + 1
			}
		}

		stop := end
		if stop > total {
			stop = total
		}
		if piece := strings.TrimSpace(string(runes[start:stop])); piece != "" {
			chunks = append(chunks, piece)
		}

		next := end - c.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// lastIndexIn 返回 pattern 完整落在 [from, to) 内的最后位置，找不到返回 -1
func lastIndexIn(runes []rune, from, to int, pattern string) int {
	pat := []rune(pattern)
	if from < 0 {
		from = 0
	}
	if to > len(runes) {
		to = len(runes)
	}
	for i := to - len(pat); i >= from; i-- {
		match := true
		for j, r := range pat {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (c *Chunker) splitRecursive(ctx context.Context, text string) ([]string, error) {
	c.initOnce.Do(func() {
		impl, err := recursive.NewSplitter(ctx, &recursive.Config{
			ChunkSize:   c.ChunkSize,
			OverlapSize: c.ChunkOverlap,
			Separators:  []string{"\n\n", "\n", ". ", " "},
			LenFunc: func(s string) int {
				return len([]rune(s))
			},
			KeepType: recursive.KeepTypeEnd,
		})
		if err != nil {
			c.initErr = err
			return
		}
		c.recursiveImpl = impl
	})
	if c.initErr != nil {
		return nil, c.initErr
	}
	if c.recursiveImpl == nil {
		return nil, fmt.Errorf("recursive splitter not initialized")
	}

	frags, err := c.recursiveImpl.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(frags))
	for _, f := range frags {
		if f == nil {
			continue
		}
		if piece := strings.TrimSpace(f.Content); piece != "" {
			out = append(out, piece)
		}
	}
	return out, nil
}
