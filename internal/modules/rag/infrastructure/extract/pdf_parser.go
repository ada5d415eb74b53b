package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
)

// PDFParser 按页提取纯文本，每个非空页末尾补换行，避免跨页单词粘连
type PDFParser struct{}

func (p *PDFParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) (docs []*schema.Document, err error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, extractionFailed("pdf", err)
	}

	// ledongthuc/pdf 遇到损坏的对象流会 panic
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = extractionFailed("pdf", fmt.Errorf("malformed document: %v", r))
		}
	}()

	pr, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, extractionFailed("pdf", err)
	}

	var sb strings.Builder
	for i := 1; i <= pr.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := pr.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, extractionFailed("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		if text == "" {
			continue
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}
	return []*schema.Document{newDocument(sb.String(), opts...)}, nil
}
