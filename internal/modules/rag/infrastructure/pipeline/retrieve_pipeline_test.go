package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"DocPilot/internal/modules/rag/domain/conversation"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/infrastructure/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(id string, score float32, filename, text string) document.RetrievedMatch {
	return document.RetrievedMatch{ChunkID: id, Score: score, Filename: filename, Text: text}
}

func newRetrieve(t *testing.T, store *stubStore, gen Generator) *RetrievePipeline {
	t.Helper()
	p, err := NewRetrievePipeline(&indexEmbedder{}, store, gen, RetrieveConfig{TopK: 5, MinScore: 0.7, VectorDim: 2})
	require.NoError(t, err)
	return p
}

func TestFilterByScore(t *testing.T) {
	in := []document.RetrievedMatch{match("a", 0.9, "a.txt", "A"), match("b", 0.5, "b.txt", "B"), match("c", 0.75, "c.txt", "C")}
	got := FilterByScore(in, 0.7)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ChunkID)
	assert.Equal(t, "c", got[1].ChunkID)

	assert.Len(t, FilterByScore([]document.RetrievedMatch{match("x", 0.7, "x", "x")}, 0.7), 1)
}

func TestBuildContext(t *testing.T) {
	got := BuildContext([]document.RetrievedMatch{match("a", 0.9, "a.txt", "alpha"), match("c", 0.75, "c.pdf", "gamma")})
	assert.Equal(t, "[Source: a.txt]\nalpha\n\n---\n\n[Source: c.pdf]\ngamma", got)
	assert.Equal(t, "", BuildContext(nil))
}

func TestRetrieve_FiltersAndKeepsRankOrder(t *testing.T) {
	store := &stubStore{matches: []document.RetrievedMatch{
		match("a", 0.9, "a.txt", "alpha"),
		match("b", 0.5, "b.txt", "beta"),
		match("c", 0.75, "c.txt", "gamma"),
	}}
	gen := &recordingGenerator{answer: "42"}
	p := newRetrieve(t, store, gen)

	history := []conversation.Turn{{Role: "user", Content: "hi"}}
	res, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "  what?  ", History: history})
	require.NoError(t, err)

	assert.Equal(t, "42", res.Answer)
	assert.Equal(t, 3, res.TotalHits)
	assert.Equal(t, 1, res.Dropped)
	assert.False(t, res.IsEmpty)
	assert.NotEmpty(t, res.QueryID)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, Source{Text: "alpha", Score: 0.9, Filename: "a.txt"}, res.Sources[0])
	assert.Equal(t, "c.txt", res.Sources[1].Filename)

	assert.Equal(t, "what?", gen.question)
	assert.Equal(t, "[Source: a.txt]\nalpha\n\n---\n\n[Source: c.txt]\ngamma", gen.context)
	assert.Equal(t, history, gen.history)
	assert.Equal(t, 5, store.lastTopK)
}

func TestRetrieve_UnsetMinScoreUsesDefault(t *testing.T) {
	store := &stubStore{matches: []document.RetrievedMatch{
		match("a", 0.9, "a.txt", "alpha"),
		match("b", 0.5, "b.txt", "beta"),
	}}
	gen := &recordingGenerator{answer: "ok"}
	p, err := NewRetrievePipeline(&indexEmbedder{}, store, gen, RetrieveConfig{VectorDim: 2})
	require.NoError(t, err)

	res, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "q"})
	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "a.txt", res.Sources[0].Filename)
	assert.Equal(t, 1, res.Dropped)
}

func TestRetrieve_TopKOverrideIsClamped(t *testing.T) {
	store := &stubStore{}
	p := newRetrieve(t, store, &recordingGenerator{})

	_, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "q", TopK: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, store.lastTopK)

	_, err = p.Retrieve(context.Background(), RetrieveRequest{Question: "q", TopK: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxTopK, store.lastTopK)
}

func TestRetrieve_SourcePreviewTruncated(t *testing.T) {
	long := strings.Repeat("é", 250)
	store := &stubStore{matches: []document.RetrievedMatch{match("a", 0.95, "a.txt", long), match("b", 0.8, "b.txt", "short")}}
	p := newRetrieve(t, store, &recordingGenerator{})

	res, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "q"})
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, strings.Repeat("é", 200)+"...", res.Sources[0].Text)
	assert.Equal(t, "short", res.Sources[1].Text)
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	gen := &recordingGenerator{}
	p := newRetrieve(t, &stubStore{}, gen)
	_, err := p.Retrieve(context.Background(), RetrieveRequest{Question: " \n "})
	assert.ErrorIs(t, err, document.ErrEmptyQuestion)
	assert.Empty(t, gen.question)
}

func TestRetrieve_StoreErrorIsProviderError(t *testing.T) {
	p := newRetrieve(t, &stubStore{err: errors.New("collection not loaded")}, &recordingGenerator{})
	_, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "q"})
	var pe *document.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "collection not loaded")
}

type captureModel struct {
	input []*schema.Message
}

func (m *captureModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.input = input
	return schema.AssistantMessage("general answer", nil), nil
}

func (m *captureModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestRetrieve_NoMatchesSendsNotice(t *testing.T) {
	cm := &captureModel{}
	gen := llm.NewAnswerGenerator(cm, llm.GeneratorConfig{SystemPrompt: "sys"})
	store := &stubStore{matches: []document.RetrievedMatch{match("b", 0.5, "b.txt", "beta")}}
	p := newRetrieve(t, store, gen)

	res, err := p.Retrieve(context.Background(), RetrieveRequest{Question: "anything?"})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty)
	assert.Empty(t, res.Sources)
	assert.Equal(t, "general answer", res.Answer)

	require.Len(t, cm.input, 3)
	assert.Equal(t, llm.NoContextNotice, cm.input[1].Content)
	for _, m := range cm.input {
		assert.NotContains(t, m.Content, "[Source:")
	}
}
