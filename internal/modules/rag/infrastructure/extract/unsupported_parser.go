package extract

import (
	"context"
	"io"

	"DocPilot/internal/modules/rag/domain/document"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// unsupportedParser 作为 ExtParser 的兜底，拒绝未登记的扩展名
type unsupportedParser struct{}

func (unsupportedParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	uri := parser.GetCommonOptions(&parser.Options{}, opts...).URI
	return nil, &unsupportedError{uri: uri}
}

type unsupportedError struct{ uri string }

func (e *unsupportedError) Error() string { return document.ErrUnsupportedFormat.Error() + ": " + e.uri }

func (e *unsupportedError) Unwrap() error { return document.ErrUnsupportedFormat }
