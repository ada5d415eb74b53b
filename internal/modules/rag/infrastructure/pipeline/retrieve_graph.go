package pipeline

import (
	"context"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/document"
	ragEmbedding "DocPilot/internal/modules/rag/infrastructure/embedding"
	"DocPilot/pkg/util"
	"DocPilot/pkg/zlog"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"
)

const retrievePipelineName = "retrieve"

type retrieveState struct {
	Req     *RetrieveRequest
	QueryID string
	TopK    int

	Vector  []float32
	Hits    []document.RetrievedMatch
	Kept    []document.RetrievedMatch
	Context string
	Answer  string

	Start time.Time
	Err   error
}

type retrieveOutcome struct {
	Result *RetrieveResult
	Err    error
}

func (p *RetrievePipeline) buildGraph(ctx context.Context) (compose.Runnable[*RetrieveRequest, *retrieveOutcome], error) {
	const (
		Validate    = "Validate"
		EmbedQuery  = "EmbedQuery"
		Search      = "Search"
		Filter      = "Filter"
		Generate    = "Generate"
		BuildResult = "BuildResult"
	)

	g := compose.NewGraph[*RetrieveRequest, *retrieveOutcome]()

	_ = g.AddLambdaNode(Validate, compose.InvokableLambdaWithOption(p.validateNode), compose.WithNodeName(Validate))
	_ = g.AddLambdaNode(EmbedQuery, compose.InvokableLambdaWithOption(p.embedQueryNode), compose.WithNodeName(EmbedQuery))
	_ = g.AddLambdaNode(Search, compose.InvokableLambdaWithOption(p.searchNode), compose.WithNodeName(Search))
	_ = g.AddLambdaNode(Filter, compose.InvokableLambdaWithOption(p.filterNode), compose.WithNodeName(Filter))
	_ = g.AddLambdaNode(Generate, compose.InvokableLambdaWithOption(p.generateNode), compose.WithNodeName(Generate))
	_ = g.AddLambdaNode(BuildResult, compose.InvokableLambdaWithOption(p.buildResultNode), compose.WithNodeName(BuildResult))

	_ = g.AddEdge(compose.START, Validate)
	_ = g.AddEdge(Validate, EmbedQuery)
	_ = g.AddEdge(EmbedQuery, Search)
	_ = g.AddEdge(Search, Filter)
	_ = g.AddEdge(Filter, Generate)
	_ = g.AddEdge(Generate, BuildResult)
	_ = g.AddEdge(BuildResult, compose.END)

	return g.Compile(ctx, compose.WithGraphName("DocumentRetrievePipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (p *RetrievePipeline) validateNode(ctx context.Context, req *RetrieveRequest, _ ...any) (*retrieveState, error) {
	st := &retrieveState{Req: req, QueryID: util.GenerateUUID(), Start: time.Now()}
	if req == nil || strings.TrimSpace(req.Question) == "" {
		st.Err = document.ErrEmptyQuestion
		return st, nil
	}
	req.Question = strings.TrimSpace(req.Question)
	st.TopK = p.topK
	if req.TopK > 0 {
		st.TopK = normalizeTopK(req.TopK)
	}
	return st, nil
}

func (p *RetrievePipeline) embedQueryNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st.Err != nil {
		return st, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	begin := time.Now()
	vectors, err := ragEmbedding.EmbedTexts(callCtx, p.embedder, []string{st.Req.Question}, p.vectorDim)
	p.metrics.ObserveStage(retrievePipelineName, "EmbedQuery", time.Since(begin))
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Vector = vectors[0]
	return st, nil
}

func (p *RetrievePipeline) searchNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st.Err != nil {
		return st, nil
	}
	begin := time.Now()
	hits, err := p.vs.Query(ctx, st.Vector, st.TopK, document.Filter{})
	p.metrics.ObserveStage(retrievePipelineName, "Search", time.Since(begin))
	if err != nil {
		st.Err = document.NewProviderError("vector store query", err)
		return st, nil
	}
	st.Hits = hits
	return st, nil
}

func (p *RetrievePipeline) filterNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st.Err != nil {
		return st, nil
	}
	st.Kept = FilterByScore(st.Hits, p.minScore)
	st.Context = BuildContext(st.Kept)
	p.metrics.ObserveRetrieval(len(st.Kept), len(st.Hits)-len(st.Kept))
	return st, nil
}

func (p *RetrievePipeline) generateNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st.Err != nil {
		return st, nil
	}
	begin := time.Now()
	answer, err := p.generator.Generate(ctx, st.Req.Question, st.Context, st.Req.History)
	p.metrics.ObserveStage(retrievePipelineName, "Generate", time.Since(begin))
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Answer = answer
	return st, nil
}

func (p *RetrievePipeline) buildResultNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveOutcome, error) {
	if st.Err != nil {
		zlog.Warn("document retrieve failed", zap.String("query_id", st.QueryID), zap.Error(st.Err))
		return &retrieveOutcome{Err: st.Err}, nil
	}

	res := &RetrieveResult{
		QueryID:   st.QueryID,
		Question:  st.Req.Question,
		Answer:    st.Answer,
		Sources:   make([]Source, 0, len(st.Kept)),
		Matches:   st.Kept,
		TotalHits: len(st.Hits),
		Dropped:   len(st.Hits) - len(st.Kept),
		IsEmpty:   len(st.Kept) == 0,
	}
	for _, m := range st.Kept {
		res.Sources = append(res.Sources, Source{
			Text:     util.TruncateRunes(m.Text, previewRunes, "..."),
			Score:    m.Score,
			Filename: m.Filename,
		})
	}
	res.DurationMs = time.Since(st.Start).Milliseconds()

	zlog.Info("document retrieve done",
		zap.String("query_id", res.QueryID),
		zap.Int("top_k", st.TopK),
		zap.Int("hits", res.TotalHits),
		zap.Int("kept", len(res.Sources)),
		zap.Int64("ms", res.DurationMs),
	)
	return &retrieveOutcome{Result: res}, nil
}
