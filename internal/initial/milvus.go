package initial

import (
	"context"
	"fmt"
	"strings"

	"DocPilot/internal/config"
	"DocPilot/internal/modules/rag/infrastructure/vectordb"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// NewMilvusClient 连接 Milvus，确保数据库、集合与向量索引存在并加载集合
func NewMilvusClient(ctx context.Context, conf *config.Config) (mclient.Client, error) {
	addr := strings.TrimSpace(conf.MilvusConfig.Address)
	if addr == "" {
		return nil, fmt.Errorf("milvus address is empty")
	}
	dbName := strings.TrimSpace(conf.MilvusConfig.DBName)
	if dbName == "" {
		dbName = "docpilot"
	}
	collection := strings.TrimSpace(conf.MilvusConfig.CollectionName)
	if collection == "" {
		collection = "document_chunks"
	}

	metric, err := MetricType(conf.MilvusConfig.MetricType)
	if err != nil {
		return nil, err
	}

	if err := ensureDatabase(ctx, conf, dbName); err != nil {
		return nil, err
	}

	cli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   dbName,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.HasCollection(ctx, collection)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}
	if !exists {
		if err := createCollection(ctx, cli, collection, conf.MilvusConfig.VectorDim, metric); err != nil {
			_ = cli.Close()
			return nil, err
		}
	}

	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("load collection %s: %w", collection, err)
	}
	return cli, nil
}

func ensureDatabase(ctx context.Context, conf *config.Config, dbName string) error {
	defaultCli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  strings.TrimSpace(conf.MilvusConfig.Address),
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   "default",
	})
	if err != nil {
		return err
	}
	defer defaultCli.Close()

	dbs, err := defaultCli.ListDatabases(ctx)
	if err != nil {
		return err
	}
	for _, db := range dbs {
		if db.Name == dbName {
			return nil
		}
	}
	return defaultCli.CreateDatabase(ctx, dbName)
}

// chunkSchema 每个 chunk 一行，元数据拆成标量字段以便过滤表达式使用
func chunkSchema(collection string, dim int) *entity.Schema {
	varchar := func(name string, maxLen int) *entity.Field {
		return &entity.Field{
			Name:       name,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{entity.TypeParamMaxLength: fmt.Sprintf("%d", maxLen)},
		}
	}
	return &entity.Schema{
		CollectionName: collection,
		Description:    "DocPilot document chunks",
		Fields: []*entity.Field{
			{
				Name:       vectordb.FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "128"},
			},
			{
				Name:       vectordb.FieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{entity.TypeParamDim: fmt.Sprintf("%d", dim)},
			},
			varchar(vectordb.FieldDocumentID, 64),
			varchar(vectordb.FieldFilename, 512),
			{Name: vectordb.FieldChunkIndex, DataType: entity.FieldTypeInt64},
			{Name: vectordb.FieldTotalChunks, DataType: entity.FieldTypeInt64},
			varchar(vectordb.FieldUploadedAt, 64),
			{Name: vectordb.FieldIsFirstChunk, DataType: entity.FieldTypeBool},
			// 1000 个字符的 UTF-8 最长 4000 字节，留足余量
			varchar(vectordb.FieldContent, 16384),
		},
	}
}

func createCollection(ctx context.Context, cli mclient.Client, collection string, dim int, metric entity.MetricType) error {
	if dim <= 0 {
		dim = 1536
	}
	if err := cli.CreateCollection(ctx, chunkSchema(collection, dim), entity.DefaultShardNumber); err != nil {
		return err
	}
	idx, err := entity.NewIndexAUTOINDEX(metric)
	if err != nil {
		return err
	}
	return cli.CreateIndex(ctx, collection, vectordb.FieldVector, idx, false)
}

// MetricType 配置值 → Milvus 度量，默认 COSINE。
// 召回阈值按 score >= minScore 保留命中，只支持越大越相似的度量，L2 距离会被拒绝。
func MetricType(s string) (entity.MetricType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "COSINE":
		return entity.COSINE, nil
	case "IP":
		return entity.IP, nil
	default:
		return "", fmt.Errorf("unsupported milvus metric type %q: use COSINE or IP", s)
	}
}
