package repository

import (
	"context"

	"DocPilot/internal/modules/rag/domain/document"
)

// VectorStore 是 domain 层定义的向量库能力抽象。
//
// application / pipeline 只依赖本接口，不直接依赖 Milvus SDK；
// infrastructure 通过适配器实现本接口（MilvusVectorStore / MemoryVectorStore）。
type VectorStore interface {
	// Upsert 分批写入；第一个失败批次之后的批次不再发起。
	// 返回值总是非 nil，由调用方区分全部成功 / 部分成功 / 全部失败。
	Upsert(ctx context.Context, chunks []document.Chunk) *document.UpsertResult
	// Query 近邻检索，结果按相似度降序
	Query(ctx context.Context, vector []float32, topK int, filter document.Filter) ([]document.RetrievedMatch, error)
	// Delete 按元数据过滤批量删除，不允许空过滤条件
	Delete(ctx context.Context, filter document.Filter) error
	// ScanByFilter 元数据扫描（文档列表使用），返回顺序不保证
	ScanByFilter(ctx context.Context, filter document.Filter, limit int) ([]document.RetrievedMatch, error)
}
