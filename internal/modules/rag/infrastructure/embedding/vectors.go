package embedding

import (
	"context"
	"fmt"

	"DocPilot/internal/modules/rag/domain/document"

	"github.com/cloudwego/eino/components/embedding"
)

// EmbedTexts 一次批量调用，校验返回数量与维度后转为 float32。
// dim <= 0 时不校验维度。
func EmbedTexts(ctx context.Context, em embedding.Embedder, texts []string, dim int) ([][]float32, error) {
	if em == nil {
		return nil, document.NewProviderError("embed", fmt.Errorf("embedder not configured"))
	}
	vectors, err := em.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, document.NewProviderError("embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, document.NewProviderError("embed", fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts)))
	}
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) == 0 || (dim > 0 && len(v) != dim) {
			return nil, document.NewProviderError("embed", fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim))
		}
		out[i] = ToFloat32(v)
	}
	return out, nil
}

func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
