package extract

import (
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser 处理 .txt/.md/.csv：要求合法 UTF-8，去掉 BOM
type TextParser struct{}

func (p *TextParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, extractionFailed("text", err)
	}
	if len(raw) >= len(utf8BOM) && string(raw[:len(utf8BOM)]) == string(utf8BOM) {
		raw = raw[len(utf8BOM):]
	}
	if !utf8.Valid(raw) {
		return nil, extractionFailed("text", errors.New("content is not valid UTF-8"))
	}
	return []*schema.Document{newDocument(string(raw), opts...)}, nil
}

func newDocument(content string, opts ...parser.Option) *schema.Document {
	common := parser.GetCommonOptions(&parser.Options{}, opts...)
	meta := map[string]any{}
	for k, v := range common.ExtraMeta {
		meta[k] = v
	}
	if common.URI != "" {
		meta["_source"] = common.URI
	}
	return &schema.Document{Content: content, MetaData: meta}
}
