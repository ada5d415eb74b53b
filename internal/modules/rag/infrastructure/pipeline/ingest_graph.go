package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DocPilot/internal/modules/rag/domain/audit"
	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/internal/modules/rag/domain/repository"
	ragEmbedding "DocPilot/internal/modules/rag/infrastructure/embedding"
	"DocPilot/pkg/zlog"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"
)

const ingestPipelineName = "ingest"

type ingestState struct {
	Req *IngestRequest

	Text    string
	Texts   []string
	Vectors [][]float32

	DocumentID string
	UploadedAt string
	Chunks     []document.Chunk
	Upsert     *document.UpsertResult

	Start time.Time
	Err   error
}

// ingestOutcome 图的输出；错误作为数据带出，保证调用方拿到原始错误类型
type ingestOutcome struct {
	Result *IngestResult
	Err    error
}

func (p *IngestPipeline) buildGraph(ctx context.Context) (compose.Runnable[*IngestRequest, *ingestOutcome], error) {
	const (
		Extract  = "Extract"
		Chunk    = "Chunk"
		Embed    = "Embed"
		Assemble = "Assemble"
		Upsert   = "Upsert"
		Record   = "Record"
	)

	g := compose.NewGraph[*IngestRequest, *ingestOutcome]()

	_ = g.AddLambdaNode(Extract, compose.InvokableLambdaWithOption(p.extractNode), compose.WithNodeName(Extract))
	_ = g.AddLambdaNode(Chunk, compose.InvokableLambdaWithOption(p.chunkNode), compose.WithNodeName(Chunk))
	_ = g.AddLambdaNode(Embed, compose.InvokableLambdaWithOption(p.embedNode), compose.WithNodeName(Embed))
	_ = g.AddLambdaNode(Assemble, compose.InvokableLambdaWithOption(p.assembleNode), compose.WithNodeName(Assemble))
	_ = g.AddLambdaNode(Upsert, compose.InvokableLambdaWithOption(p.upsertNode), compose.WithNodeName(Upsert))
	_ = g.AddLambdaNode(Record, compose.InvokableLambdaWithOption(p.recordNode), compose.WithNodeName(Record))

	_ = g.AddEdge(compose.START, Extract)
	_ = g.AddEdge(Extract, Chunk)
	_ = g.AddEdge(Chunk, Embed)
	_ = g.AddEdge(Embed, Assemble)
	_ = g.AddEdge(Assemble, Upsert)
	_ = g.AddEdge(Upsert, Record)
	_ = g.AddEdge(Record, compose.END)

	return g.Compile(ctx, compose.WithGraphName("DocumentIngestPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (p *IngestPipeline) extractNode(ctx context.Context, req *IngestRequest, _ ...any) (*ingestState, error) {
	st := &ingestState{Req: req, Start: time.Now()}
	if req == nil {
		st.Err = fmt.Errorf("nil request")
		return st, nil
	}
	req.Filename = strings.TrimSpace(req.Filename)

	begin := time.Now()
	text, err := p.extractor.Extract(ctx, req.Data, req.Filename)
	p.metrics.ObserveStage(ingestPipelineName, "Extract", time.Since(begin))
	if err != nil {
		st.Err = err
		return st, nil
	}
	if strings.TrimSpace(text) == "" {
		st.Err = document.ErrEmptyDocument
		return st, nil
	}
	st.Text = text
	return st, nil
}

func (p *IngestPipeline) chunkNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	begin := time.Now()
	texts, err := p.chunker.Split(ctx, st.Text)
	p.metrics.ObserveStage(ingestPipelineName, "Chunk", time.Since(begin))
	if err != nil {
		st.Err = err
		return st, nil
	}
	if len(texts) == 0 {
		st.Err = document.ErrEmptyDocument
		return st, nil
	}
	st.Texts = texts
	return st, nil
}

// embedNode 所有片段一次批量向量化
func (p *IngestPipeline) embedNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	begin := time.Now()
	vectors, err := ragEmbedding.EmbedTexts(callCtx, p.embedder, st.Texts, p.vectorDim)
	p.metrics.ObserveStage(ingestPipelineName, "Embed", time.Since(begin))
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Vectors = vectors
	return st, nil
}

// assembleNode 同一次摄入共享 document_id 与 uploaded_at
func (p *IngestPipeline) assembleNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	now := p.now()
	st.DocumentID = document.NewDocumentID(now)
	st.UploadedAt = document.FormatUploadedAt(now)

	chunks, err := document.BuildChunks(st.DocumentID, st.Req.Filename, st.UploadedAt, st.Texts, st.Vectors)
	if err != nil {
		st.Err = document.NewProviderError("embed", err)
		return st, nil
	}
	st.Chunks = chunks
	return st, nil
}

func (p *IngestPipeline) upsertNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	begin := time.Now()
	res := p.vs.Upsert(ctx, st.Chunks)
	p.metrics.ObserveStage(ingestPipelineName, "Upsert", time.Since(begin))
	if res == nil {
		res = &document.UpsertResult{Total: len(st.Chunks)}
	}
	st.Upsert = res

	switch {
	case res.Succeeded():
	case res.Stored == 0:
		cause := res.FirstError()
		if cause == nil {
			cause = errors.New("no chunks stored")
		}
		st.Err = document.NewProviderError("vector store upsert", cause)
	default:
		st.Err = &document.PartialIngestionError{
			DocumentID:    st.DocumentID,
			Filename:      st.Req.Filename,
			Stored:        res.Stored,
			Total:         res.Total,
			FailedBatches: res.FailedBatches,
		}
	}
	return st, nil
}

// recordNode 写审计与事件（失败只记日志，不改变摄入结果），输出最终结果
func (p *IngestPipeline) recordNode(ctx context.Context, st *ingestState, _ ...any) (*ingestOutcome, error) {
	res := &IngestResult{}
	if st.Req != nil {
		res.Filename = st.Req.Filename
	}
	res.DocumentID = st.DocumentID
	res.ChunkCount = len(st.Chunks)
	if st.Upsert != nil {
		res.Stored = st.Upsert.Stored
	}
	res.DurationMs = time.Since(st.Start).Milliseconds()

	status := ingestStatus(st)
	p.metrics.ObserveIngest(status, res.Stored)

	if st.Upsert != nil {
		p.saveRecord(ctx, st, res, status)
		p.publishEvent(ctx, res, status)
	}

	fields := []zap.Field{
		zap.String("document_id", res.DocumentID),
		zap.String("filename", res.Filename),
		zap.String("status", status),
		zap.Int("chunks", res.ChunkCount),
		zap.Int("stored", res.Stored),
		zap.Int64("ms", res.DurationMs),
	}
	if st.Err != nil {
		zlog.Warn("document ingest failed", append(fields, zap.Error(st.Err))...)
	} else {
		zlog.Info("document ingest done", fields...)
	}

	if st.Err != nil {
		// 部分写入时仍返回结果，便于调用方得到 document_id
		var partial *document.PartialIngestionError
		if errors.As(st.Err, &partial) {
			return &ingestOutcome{Result: res, Err: st.Err}, nil
		}
		return &ingestOutcome{Err: st.Err}, nil
	}
	return &ingestOutcome{Result: res}, nil
}

func ingestStatus(st *ingestState) string {
	var partial *document.PartialIngestionError
	switch {
	case st.Err == nil:
		return audit.IngestStatusSucceeded
	case errors.As(st.Err, &partial):
		return audit.IngestStatusPartial
	default:
		return audit.IngestStatusFailed
	}
}

func (p *IngestPipeline) saveRecord(ctx context.Context, st *ingestState, res *IngestResult, status string) {
	if p.records == nil || res.DocumentID == "" {
		return
	}
	rec := &audit.IngestRecord{
		DocumentId:   res.DocumentID,
		Filename:     res.Filename,
		TotalChunks:  res.ChunkCount,
		StoredChunks: res.Stored,
		Status:       status,
	}
	if st.Err != nil {
		rec.LastError = st.Err.Error()
	}
	if err := p.records.Save(ctx, rec); err != nil {
		zlog.Warn("save ingest record failed", zap.String("document_id", res.DocumentID), zap.Error(err))
	}
}

func (p *IngestPipeline) publishEvent(ctx context.Context, res *IngestResult, status string) {
	if p.events == nil || res.DocumentID == "" {
		return
	}
	evType := repository.DocumentEventIngested
	switch status {
	case audit.IngestStatusPartial:
		evType = repository.DocumentEventPartial
	case audit.IngestStatusFailed:
		return
	}
	ev := repository.DocumentEvent{
		Type:       evType,
		DocumentID: res.DocumentID,
		Filename:   res.Filename,
		Chunks:     res.ChunkCount,
		Stored:     res.Stored,
		OccurredAt: p.now().UTC(),
	}
	if err := p.events.PublishDocumentEvent(ctx, ev); err != nil {
		zlog.Warn("publish document event failed", zap.String("document_id", res.DocumentID), zap.String("type", evType), zap.Error(err))
	}
}
