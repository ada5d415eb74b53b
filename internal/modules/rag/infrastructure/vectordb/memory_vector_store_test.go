package vectordb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"DocPilot/internal/modules/rag/domain/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks(docID, filename string, vectors [][]float32) []document.Chunk {
	texts := make([]string, len(vectors))
	for i := range vectors {
		texts[i] = fmt.Sprintf("%s text %d", docID, i)
	}
	chunks, _ := document.BuildChunks(docID, filename, "2026-01-02T03:04:05Z", texts, vectors)
	return chunks
}

func TestMemoryStore_QueryRanksByCosine(t *testing.T) {
	s := NewMemoryVectorStore(2, 100)
	ctx := context.Background()
	res := s.Upsert(ctx, testChunks("doc_a", "a.txt", [][]float32{{1, 0}, {0, 1}, {1, 1}}))
	require.True(t, res.Succeeded())

	got, err := s.Query(ctx, []float32{1, 0}, 2, document.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc_a_chunk_0", got[0].ChunkID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, "doc_a_chunk_2", got[1].ChunkID)
	assert.Equal(t, "a.txt", got[1].Filename)
	assert.Nil(t, got[0].Metadata.Embedding)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryVectorStore(3, 100)
	res := s.Upsert(context.Background(), testChunks("doc_a", "a.txt", [][]float32{{1, 0}}))
	assert.False(t, res.Succeeded())
	assert.Equal(t, 0, res.Stored)
	assert.Error(t, res.FirstError())

	_, err := s.Query(context.Background(), []float32{1, 0}, 5, document.Filter{})
	assert.Error(t, err)
}

func TestMemoryStore_ScanFirstChunks(t *testing.T) {
	s := NewMemoryVectorStore(2, 100)
	ctx := context.Background()
	s.Upsert(ctx, testChunks("doc_a", "a.txt", [][]float32{{1, 0}, {0, 1}, {1, 1}}))
	s.Upsert(ctx, testChunks("doc_b", "b.md", [][]float32{{1, 0}}))

	got, err := s.ScanByFilter(ctx, document.Filter{FirstChunkOnly: true}, 1000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc_a", got[0].Metadata.DocumentID)
	assert.Equal(t, 3, got[0].Metadata.TotalChunks)
	assert.Equal(t, "doc_b", got[1].Metadata.DocumentID)
	for _, m := range got {
		assert.Zero(t, m.Score)
		assert.True(t, m.Metadata.IsFirstChunk)
	}
}

func TestMemoryStore_DeleteByDocument(t *testing.T) {
	s := NewMemoryVectorStore(2, 100)
	ctx := context.Background()
	s.Upsert(ctx, testChunks("doc_a", "a.txt", [][]float32{{1, 0}, {0, 1}}))
	s.Upsert(ctx, testChunks("doc_b", "b.txt", [][]float32{{1, 0}}))

	require.Error(t, s.Delete(ctx, document.Filter{}))
	require.NoError(t, s.Delete(ctx, document.Filter{DocumentID: "doc_a"}))
	assert.Equal(t, 1, s.Len())

	got, err := s.Query(ctx, []float32{1, 0}, 10, document.Filter{DocumentID: "doc_a"})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Delete(ctx, document.Filter{DocumentID: "doc_missing"}))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_PartialBatchFailure(t *testing.T) {
	s := NewMemoryVectorStore(2, 2)
	boom := errors.New("store unavailable")
	s.FailBatchesWith(func(index int) error {
		if index == 1 {
			return boom
		}
		return nil
	})

	vectors := make([][]float32, 5)
	for i := range vectors {
		vectors[i] = []float32{1, float32(i)}
	}
	res := s.Upsert(context.Background(), testChunks("doc_a", "a.txt", vectors))

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Stored)
	assert.True(t, res.Partial())
	require.Len(t, res.FailedBatches, 2)
	assert.True(t, res.FailedBatches[0].Attempted)
	assert.Equal(t, []string{"doc_a_chunk_2", "doc_a_chunk_3"}, res.FailedBatches[0].ChunkIDs)
	assert.False(t, res.FailedBatches[1].Attempted)
	assert.Equal(t, []string{"doc_a_chunk_4"}, res.FailedBatches[1].ChunkIDs)
	assert.ErrorIs(t, res.FirstError(), boom)
	assert.Equal(t, 2, s.Len())
}

func TestFilterExpr(t *testing.T) {
	assert.Equal(t, "", FilterExpr(document.Filter{}))
	assert.Equal(t, `document_id == "doc_1_abc"`, FilterExpr(document.Filter{DocumentID: "doc_1_abc"}))
	assert.Equal(t, "is_first_chunk == true", FilterExpr(document.Filter{FirstChunkOnly: true}))
	assert.Equal(t, `document_id == "d" && is_first_chunk == true`, FilterExpr(document.Filter{DocumentID: "d", FirstChunkOnly: true}))
}
