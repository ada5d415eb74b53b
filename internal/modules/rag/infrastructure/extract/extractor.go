package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"DocPilot/internal/modules/rag/domain/document"

	"github.com/cloudwego/eino/components/document/parser"
)

// Extractor 按扩展名分派到对应的 eino parser，输出纯文本
type Extractor struct {
	parsers map[string]parser.Parser
	ext     *parser.ExtParser
}

func NewExtractor(ctx context.Context) (*Extractor, error) {
	text := &TextParser{}
	parsers := map[string]parser.Parser{
		".pdf":  &PDFParser{},
		".docx": &DocxParser{},
		".txt":  text,
		".md":   text,
		".csv":  text,
	}
	ext, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers:        parsers,
		FallbackParser: unsupportedParser{},
	})
	if err != nil {
		return nil, err
	}
	return &Extractor{parsers: parsers, ext: ext}, nil
}

// SupportedExtensions 返回排序后的扩展名列表（用于错误提示）
func (e *Extractor) SupportedExtensions() []string {
	out := make([]string, 0, len(e.parsers))
	for k := range e.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extract 扩展名大小写不敏感；未知扩展名返回 ErrUnsupportedFormat，内容损坏返回 ErrExtractionFailed
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if _, ok := e.parsers[ext]; !ok {
		return "", fmt.Errorf("%w: %s", document.ErrUnsupportedFormat, filename)
	}

	// ExtParser 按 URI 扩展名匹配，这里传入归一化后的扩展名
	docs, err := e.ext.Parse(ctx, bytes.NewReader(data), parser.WithURI("upload"+ext))
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedFormat) || errors.Is(err, document.ErrExtractionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", document.ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for _, d := range docs {
		if d == nil {
			continue
		}
		sb.WriteString(d.Content)
	}
	return sb.String(), nil
}

func extractionFailed(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", document.ErrExtractionFailed, format, err)
}
