package vectordb

import (
	"context"

	"DocPilot/internal/modules/rag/domain/document"
)

const DefaultUpsertBatchSize = 100

// upsertInBatches 按批写入；第一批失败后停止，剩余批次标记为未发起
func upsertInBatches(ctx context.Context, chunks []document.Chunk, batchSize int, write func(context.Context, []document.Chunk) error) *document.UpsertResult {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	res := &document.UpsertResult{Total: len(chunks)}
	failed := false
	for i, start := 0, 0; start < len(chunks); i, start = i+1, start+batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		if failed {
			res.FailedBatches = append(res.FailedBatches, document.BatchFailure{Index: i, ChunkIDs: chunkIDs(batch)})
			continue
		}
		if err := write(ctx, batch); err != nil {
			failed = true
			res.FailedBatches = append(res.FailedBatches, document.BatchFailure{Index: i, ChunkIDs: chunkIDs(batch), Err: err, Attempted: true})
			continue
		}
		res.Stored += len(batch)
	}
	return res
}

func chunkIDs(chunks []document.Chunk) []string {
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	return ids
}
