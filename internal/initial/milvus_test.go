package initial

import (
	"testing"

	"DocPilot/internal/modules/rag/infrastructure/vectordb"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricType(t *testing.T) {
	tests := []struct {
		in   string
		want entity.MetricType
	}{
		{"", entity.COSINE},
		{"cosine", entity.COSINE},
		{" IP ", entity.IP},
	}
	for _, tt := range tests {
		got, err := MetricType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMetricType_RejectsDistanceMetrics(t *testing.T) {
	for _, in := range []string{"L2", "l2", "HAMMING"} {
		_, err := MetricType(in)
		assert.Error(t, err, in)
	}
}

func TestChunkSchema(t *testing.T) {
	s := chunkSchema("document_chunks", 768)
	require.Len(t, s.Fields, 9)

	byName := map[string]*entity.Field{}
	for _, f := range s.Fields {
		byName[f.Name] = f
	}
	assert.True(t, byName[vectordb.FieldID].PrimaryKey)
	assert.Equal(t, "768", byName[vectordb.FieldVector].TypeParams[entity.TypeParamDim])
	assert.Equal(t, entity.FieldTypeBool, byName[vectordb.FieldIsFirstChunk].DataType)
	assert.Equal(t, entity.FieldTypeInt64, byName[vectordb.FieldTotalChunks].DataType)
}
