package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 集合字段名，与 initial.NewMilvusClient 建表保持一致
const (
	FieldID           = "id"
	FieldVector       = "vector"
	FieldDocumentID   = "document_id"
	FieldFilename     = "filename"
	FieldChunkIndex   = "chunk_index"
	FieldTotalChunks  = "total_chunks"
	FieldUploadedAt   = "uploaded_at"
	FieldIsFirstChunk = "is_first_chunk"
	FieldContent      = "content"
)

var metaFields = []string{FieldDocumentID, FieldFilename, FieldChunkIndex, FieldTotalChunks, FieldUploadedAt, FieldIsFirstChunk, FieldContent}

type UpsertRow struct {
	ID           string
	Vector       []float32
	DocumentID   string
	Filename     string
	ChunkIndex   int64
	TotalChunks  int64
	UploadedAt   string
	IsFirstChunk bool
	Content      string
}

type SearchHit struct {
	ID           string
	Score        float32
	DocumentID   string
	Filename     string
	ChunkIndex   int64
	TotalChunks  int64
	UploadedAt   string
	IsFirstChunk bool
	Content      string
}

// MilvusStore Milvus SDK 的薄封装，不依赖 domain 类型
// 检索与标量查询均使用 Strong 一致性，刚写入或删除的分块立即可见
type MilvusStore struct {
	cli         mclient.Client
	collection  string
	vectorField string
	metricType  entity.MetricType
	vectorDim   int
	searchParam entity.SearchParam
}

func NewMilvusStore(cli mclient.Client, collection string, vectorDim int, metricType entity.MetricType) (*MilvusStore, error) {
	if cli == nil {
		return nil, errors.New("milvus client is nil")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("collection is empty")
	}
	if vectorDim <= 0 {
		return nil, fmt.Errorf("invalid vectorDim: %d", vectorDim)
	}
	switch metricType {
	case "":
		metricType = entity.COSINE
	case entity.COSINE, entity.IP:
	default:
		// L2 等距离度量越小越近，与 score >= minScore 的过滤方向相反
		return nil, fmt.Errorf("unsupported metric type %s", metricType)
	}
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return &MilvusStore{cli: cli, collection: collection, vectorField: FieldVector, metricType: metricType, vectorDim: vectorDim, searchParam: sp}, nil
}

func (s *MilvusStore) Upsert(ctx context.Context, rows []UpsertRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	docIDs := make([]string, 0, len(rows))
	filenames := make([]string, 0, len(rows))
	indexes := make([]int64, 0, len(rows))
	totals := make([]int64, 0, len(rows))
	uploadedAts := make([]string, 0, len(rows))
	firsts := make([]bool, 0, len(rows))
	contents := make([]string, 0, len(rows))

	for _, r := range rows {
		if r.ID == "" {
			return errors.New("upsert row missing ID")
		}
		if len(r.Vector) != s.vectorDim {
			return fmt.Errorf("vector dim mismatch for id=%s, got=%d want=%d", r.ID, len(r.Vector), s.vectorDim)
		}
		ids = append(ids, r.ID)
		vectors = append(vectors, r.Vector)
		docIDs = append(docIDs, r.DocumentID)
		filenames = append(filenames, r.Filename)
		indexes = append(indexes, r.ChunkIndex)
		totals = append(totals, r.TotalChunks)
		uploadedAts = append(uploadedAts, r.UploadedAt)
		firsts = append(firsts, r.IsFirstChunk)
		contents = append(contents, r.Content)
	}

	_, err := s.cli.Upsert(
		ctx,
		s.collection,
		"",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(s.vectorField, s.vectorDim, vectors),
		entity.NewColumnVarChar(FieldDocumentID, docIDs),
		entity.NewColumnVarChar(FieldFilename, filenames),
		entity.NewColumnInt64(FieldChunkIndex, indexes),
		entity.NewColumnInt64(FieldTotalChunks, totals),
		entity.NewColumnVarChar(FieldUploadedAt, uploadedAts),
		entity.NewColumnBool(FieldIsFirstChunk, firsts),
		entity.NewColumnVarChar(FieldContent, contents),
	)
	return err
}

func (s *MilvusStore) DeleteByExpr(ctx context.Context, expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errors.New("refusing to delete with empty expression")
	}
	return s.cli.Delete(ctx, s.collection, "", expr)
}

func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int, expr string) ([]SearchHit, error) {
	if len(vector) != s.vectorDim {
		return nil, fmt.Errorf("vector dim mismatch, got=%d want=%d", len(vector), s.vectorDim)
	}
	if topK <= 0 {
		topK = 5
	}
	res, err := s.cli.Search(
		ctx,
		s.collection,
		[]string{},
		expr,
		metaFields,
		[]entity.Vector{entity.FloatVector(vector)},
		s.vectorField,
		s.metricType,
		topK,
		s.searchParam,
		mclient.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []SearchHit{}, nil
	}
	sr := res[0]
	if sr.Err != nil {
		return nil, sr.Err
	}
	return parseRows(sr.IDs, sr.Fields, sr.Scores, sr.ResultCount), nil
}

// Query 原生标量查询，不参与向量相似度计算
func (s *MilvusStore) Query(ctx context.Context, expr string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(expr) == "" {
		expr = FieldID + ` != ""`
	}
	opts := []mclient.SearchQueryOptionFunc{mclient.WithSearchQueryConsistencyLevel(entity.ClStrong)}
	if limit > 0 {
		opts = append(opts, mclient.WithLimit(int64(limit)))
	}
	rs, err := s.cli.Query(ctx, s.collection, []string{}, expr, append([]string{FieldID}, metaFields...), opts...)
	if err != nil {
		return nil, err
	}
	idCol := columnByName(rs, FieldID)
	if idCol == nil {
		return []SearchHit{}, nil
	}
	return parseRows(idCol, rs, nil, idCol.Len()), nil
}

func parseRows(idCol entity.Column, cols mclient.ResultSet, scores []float32, n int) []SearchHit {
	hits := make([]SearchHit, 0, n)

	docCol := columnByName(cols, FieldDocumentID)
	fileCol := columnByName(cols, FieldFilename)
	indexCol := columnByName(cols, FieldChunkIndex)
	totalCol := columnByName(cols, FieldTotalChunks)
	uploadedCol := columnByName(cols, FieldUploadedAt)
	firstCol := columnByName(cols, FieldIsFirstChunk)
	contentCol := columnByName(cols, FieldContent)

	for i := 0; i < n; i++ {
		h := SearchHit{}
		if idCol != nil {
			h.ID, _ = idCol.GetAsString(i)
		}
		if i < len(scores) {
			h.Score = scores[i]
		}
		if docCol != nil {
			h.DocumentID, _ = docCol.GetAsString(i)
		}
		if fileCol != nil {
			h.Filename, _ = fileCol.GetAsString(i)
		}
		if indexCol != nil {
			h.ChunkIndex, _ = indexCol.GetAsInt64(i)
		}
		if totalCol != nil {
			h.TotalChunks, _ = totalCol.GetAsInt64(i)
		}
		if uploadedCol != nil {
			h.UploadedAt, _ = uploadedCol.GetAsString(i)
		}
		if firstCol != nil {
			h.IsFirstChunk, _ = firstCol.GetAsBool(i)
		}
		if contentCol != nil {
			h.Content, _ = contentCol.GetAsString(i)
		}
		hits = append(hits, h)
	}
	return hits
}

func columnByName(cols mclient.ResultSet, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

// quoteExpr 生成 Milvus 表达式中的字符串字面量
func quoteExpr(s string) string {
	return strconv.Quote(s)
}
