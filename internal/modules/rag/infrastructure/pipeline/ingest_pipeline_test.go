package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"DocPilot/internal/modules/rag/domain/audit"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/internal/modules/rag/infrastructure/chunking"
	"DocPilot/internal/modules/rag/infrastructure/extract"
	"DocPilot/internal/modules/rag/infrastructure/vectordb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docIDPattern = regexp.MustCompile(`^doc_\d+_[a-z]{6}$`)

func newIngest(t *testing.T, store *vectordb.MemoryVectorStore, em *indexEmbedder, opts ...IngestOption) *IngestPipeline {
	t.Helper()
	ex, err := extract.NewExtractor(context.Background())
	require.NoError(t, err)
	p, err := NewIngestPipeline(ex, chunking.NewChunker(1000, 200), em, store, 2, opts...)
	require.NoError(t, err)
	return p
}

func TestIngest_Success(t *testing.T) {
	store := vectordb.NewMemoryVectorStore(2, 100)
	records := newMemoryRecords()
	events := &recordingEvents{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	em := &indexEmbedder{}
	p := newIngest(t, store, em, WithIngestRecords(records), WithIngestEvents(events), WithClock(func() time.Time { return fixed }))

	res, err := p.Ingest(context.Background(), IngestRequest{Filename: "notes.txt", Data: []byte(strings.Repeat("a", 2500))})
	require.NoError(t, err)
	assert.Equal(t, 1, em.calls)
	assert.Equal(t, "notes.txt", res.Filename)
	assert.Equal(t, 4, res.ChunkCount)
	assert.Equal(t, 4, res.Stored)
	assert.Regexp(t, docIDPattern, res.DocumentID)
	assert.True(t, strings.HasPrefix(res.DocumentID, "doc_1772366400_"))
	assert.Equal(t, 4, store.Len())

	all, err := store.ScanByFilter(context.Background(), document.Filter{DocumentID: res.DocumentID}, 100)
	require.NoError(t, err)
	require.Len(t, all, 4)
	firsts := 0
	for _, m := range all {
		assert.Equal(t, res.DocumentID, m.Metadata.DocumentID)
		assert.Equal(t, "2026-03-01T12:00:00Z", m.Metadata.UploadedAt)
		assert.Equal(t, 4, m.Metadata.TotalChunks)
		if m.Metadata.IsFirstChunk {
			firsts++
			assert.Equal(t, 0, m.Metadata.ChunkIndex)
			assert.Equal(t, res.DocumentID+"_chunk_0", m.ChunkID)
		}
	}
	assert.Equal(t, 1, firsts)

	rec := records.get(res.DocumentID)
	require.NotNil(t, rec)
	assert.Equal(t, audit.IngestStatusSucceeded, rec.Status)
	require.Len(t, events.events, 1)
	assert.Equal(t, repository.DocumentEventIngested, events.events[0].Type)
}

func TestIngest_EmptyDocument(t *testing.T) {
	store := vectordb.NewMemoryVectorStore(2, 100)
	em := &indexEmbedder{}
	p := newIngest(t, store, em)

	res, err := p.Ingest(context.Background(), IngestRequest{Filename: "blank.md", Data: []byte(" \r\n\t ")})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, document.ErrEmptyDocument)
	assert.Equal(t, 0, em.calls)
	assert.Equal(t, 0, store.Len())
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	p := newIngest(t, vectordb.NewMemoryVectorStore(2, 100), &indexEmbedder{})
	_, err := p.Ingest(context.Background(), IngestRequest{Filename: "photo.jpeg", Data: []byte("x")})
	assert.ErrorIs(t, err, document.ErrUnsupportedFormat)
}

func TestIngest_EmbeddingFailures(t *testing.T) {
	boom := errors.New("embedding quota exceeded")
	p := newIngest(t, vectordb.NewMemoryVectorStore(2, 100), &indexEmbedder{err: boom})
	_, err := p.Ingest(context.Background(), IngestRequest{Filename: "a.txt", Data: []byte("hello")})
	var pe *document.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, boom)

	p = newIngest(t, vectordb.NewMemoryVectorStore(2, 100), &indexEmbedder{short: true})
	_, err = p.Ingest(context.Background(), IngestRequest{Filename: "a.txt", Data: []byte(strings.Repeat("b", 2500))})
	assert.ErrorAs(t, err, &pe)
}

func TestIngest_PartialFailure(t *testing.T) {
	store := vectordb.NewMemoryVectorStore(2, 2)
	store.FailBatchesWith(func(index int) error {
		if index == 1 {
			return errors.New("milvus timeout")
		}
		return nil
	})
	records := newMemoryRecords()
	events := &recordingEvents{}
	p := newIngest(t, store, &indexEmbedder{}, WithIngestRecords(records), WithIngestEvents(events))

	res, err := p.Ingest(context.Background(), IngestRequest{Filename: "big.txt", Data: []byte(strings.Repeat("c", 2500))})
	var partial *document.PartialIngestionError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, res)
	assert.Equal(t, 2, partial.Stored)
	assert.Equal(t, 4, partial.Total)
	assert.Equal(t, res.DocumentID, partial.DocumentID)
	assert.Equal(t, 2, store.Len())

	rec := records.get(res.DocumentID)
	require.NotNil(t, rec)
	assert.Equal(t, audit.IngestStatusPartial, rec.Status)
	assert.Equal(t, 2, rec.StoredChunks)
	assert.Contains(t, rec.LastError, "milvus timeout")
	require.Len(t, events.events, 1)
	assert.Equal(t, repository.DocumentEventPartial, events.events[0].Type)
}

func TestIngest_TotalStoreFailure(t *testing.T) {
	store := vectordb.NewMemoryVectorStore(2, 100)
	store.FailBatchesWith(func(int) error { return errors.New("connection refused") })
	records := newMemoryRecords()
	events := &recordingEvents{}
	p := newIngest(t, store, &indexEmbedder{}, WithIngestRecords(records), WithIngestEvents(events))

	res, err := p.Ingest(context.Background(), IngestRequest{Filename: "a.txt", Data: []byte("short text")})
	assert.Nil(t, res)
	var pe *document.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, events.events)
	require.Len(t, records.recs, 1)
	for _, rec := range records.recs {
		assert.Equal(t, audit.IngestStatusFailed, rec.Status)
	}
}

func TestIngest_AuditAndEventErrorsDoNotFail(t *testing.T) {
	records := newMemoryRecords()
	records.err = errors.New("mysql down")
	events := &recordingEvents{err: errors.New("kafka down")}
	p := newIngest(t, vectordb.NewMemoryVectorStore(2, 100), &indexEmbedder{}, WithIngestRecords(records), WithIngestEvents(events))

	res, err := p.Ingest(context.Background(), IngestRequest{Filename: "a.txt", Data: []byte("hello world")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunkCount)
}

func TestIngest_IgnoresCallerCancellation(t *testing.T) {
	store := vectordb.NewMemoryVectorStore(2, 100)
	p := newIngest(t, store, &indexEmbedder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ingest(ctx, IngestRequest{Filename: "a.txt", Data: []byte("hello world")})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
