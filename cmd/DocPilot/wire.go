package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpServer "DocPilot/api/http"
	"DocPilot/internal/config"
	"DocPilot/internal/initial"
	"DocPilot/internal/middleware/metrics"
	"DocPilot/internal/modules/rag/application/service"
	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/internal/modules/rag/infrastructure/chunking"
	ragEmbedding "DocPilot/internal/modules/rag/infrastructure/embedding"
	"DocPilot/internal/modules/rag/infrastructure/events"
	"DocPilot/internal/modules/rag/infrastructure/extract"
	"DocPilot/internal/modules/rag/infrastructure/llm"
	mcpServer "DocPilot/internal/modules/rag/infrastructure/mcp/server"
	"DocPilot/internal/modules/rag/infrastructure/mq/kafka"
	"DocPilot/internal/modules/rag/infrastructure/persistence"
	"DocPilot/internal/modules/rag/infrastructure/pipeline"
	"DocPilot/internal/modules/rag/infrastructure/vectordb"
	ragHandler "DocPilot/internal/modules/rag/interface/http"
	"DocPilot/pkg/zlog"

	"go.uber.org/zap"
)

// app 进程内唯一的一组客户端与服务，main 负责关闭
type app struct {
	router  http.Handler
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			zlog.Warn("close resource failed", zap.Error(err))
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildApp(ctx context.Context, conf *config.Config) (*app, error) {
	a := &app{}
	m := metrics.New("docpilot")

	embedder, emMeta, err := ragEmbedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	dim := emMeta.Dim
	zlog.Info("embedder ready", zap.String("provider", emMeta.Provider), zap.String("model", emMeta.Model), zap.Int("dim", dim))

	vs, err := buildVectorStore(ctx, conf, dim, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	cm, cmMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	zlog.Info("chat model ready", zap.String("provider", cmMeta.Provider), zap.String("model", cmMeta.Model))
	generator := llm.NewAnswerGenerator(cm, llm.GeneratorConfig{
		SystemPrompt: conf.RAGConfig.SystemPrompt,
		Temperature:  conf.AIConfig.ChatModel.Temperature,
		MaxTokens:    conf.AIConfig.ChatModel.MaxTokens,
		HistoryTurns: conf.RAGConfig.HistoryTurns,
		Timeout:      time.Duration(conf.AIConfig.ChatModel.TimeoutSeconds) * time.Second,
	})

	extractor, err := extract.NewExtractor(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	chunker, err := chunking.NewChunkerForStrategy(conf.RAGConfig.ChunkStrategy, conf.RAGConfig.ChunkSize, conf.RAGConfig.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, err
	}

	records, err := buildIngestRecords(conf, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	eventPub, err := buildEventPublisher(conf, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedTimeout := time.Duration(conf.AIConfig.Embedding.TimeoutSeconds) * time.Second
	ingestOpts := []pipeline.IngestOption{pipeline.WithIngestMetrics(m), pipeline.WithEmbedTimeout(embedTimeout)}
	if records != nil {
		ingestOpts = append(ingestOpts, pipeline.WithIngestRecords(records))
	}
	if eventPub != nil {
		ingestOpts = append(ingestOpts, pipeline.WithIngestEvents(eventPub))
	}
	ingest, err := pipeline.NewIngestPipeline(extractor, chunker, embedder, vs, dim, ingestOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	retrieve, err := pipeline.NewRetrievePipeline(embedder, vs, generator, pipeline.RetrieveConfig{
		TopK:         conf.RAGConfig.TopK,
		MinScore:     conf.RAGConfig.MinScore,
		VectorDim:    dim,
		EmbedTimeout: embedTimeout,
		Metrics:      m,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	docSvc := service.NewDocumentService(ingest, vs, service.DocumentServiceConfig{
		ScanLimit: conf.VectorStoreConfig.ScanLimit,
		MaxBytes:  conf.UploadConfig.MaxBytes,
		Records:   records,
		Events:    eventPub,
	})
	chatSvc := service.NewChatService(retrieve)

	deps := httpServer.RouterDeps{
		Documents: ragHandler.NewDocumentHandler(docSvc, conf.UploadConfig.MaxBytes),
		Chat:      ragHandler.NewChatHandler(chatSvc),
		Metrics:   m,
	}
	if conf.MCPConfig.Enabled {
		s := mcpServer.NewDocumentMCPServer(mcpServer.ServerConfig{Name: conf.MCPConfig.Name, Version: conf.MCPConfig.Version}, docSvc, chatSvc)
		deps.MCP = mcpServer.NewHTTPHandler(s)
		zlog.Info("mcp server enabled", zap.String("path", "/mcp"))
	}
	a.router = httpServer.NewRouter(conf, deps)
	return a, nil
}

func buildVectorStore(ctx context.Context, conf *config.Config, dim int, a *app) (repository.VectorStore, error) {
	batch := conf.VectorStoreConfig.UpsertBatchSize
	switch strings.ToLower(strings.TrimSpace(conf.VectorStoreConfig.Backend)) {
	case "memory":
		zlog.Warn("using in-memory vector store, data is lost on restart")
		return vectordb.NewMemoryVectorStore(dim, batch), nil
	case "", "milvus":
		cli, err := initial.NewMilvusClient(ctx, conf)
		if err != nil {
			return nil, fmt.Errorf("init milvus: %w", err)
		}
		a.closers = append(a.closers, cli)
		metric, err := initial.MetricType(conf.MilvusConfig.MetricType)
		if err != nil {
			return nil, err
		}
		store, err := vectordb.NewMilvusStore(cli, conf.MilvusConfig.CollectionName, dim, metric)
		if err != nil {
			return nil, err
		}
		return vectordb.NewMilvusVectorStore(store, batch, time.Duration(conf.VectorStoreConfig.TimeoutSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", conf.VectorStoreConfig.Backend)
	}
}

// buildIngestRecords 未配置 MySQL 时返回 nil，审计关闭
func buildIngestRecords(conf *config.Config, a *app) (repository.IngestRecordRepository, error) {
	db, err := initial.NewGormDB(conf)
	if err != nil {
		return nil, fmt.Errorf("init mysql: %w", err)
	}
	if db == nil {
		return nil, nil
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB)
	}
	return persistence.NewIngestRecordRepository(db), nil
}

// buildEventPublisher 未配置 Kafka 时返回 nil，不发布事件
func buildEventPublisher(conf *config.Config, a *app) (repository.DocumentEventPublisher, error) {
	kc := conf.KafkaConfig
	if len(kc.Brokers) == 0 {
		return nil, nil
	}
	pc := kafka.PublisherConfig{Brokers: kc.Brokers, ClientID: kc.ClientID}
	topic := kafka.EventTopic{Name: kc.EventTopic, Partitions: kc.Partitions, Replication: kc.Replication}
	if err := kafka.EnsureEventTopic(pc, topic); err != nil {
		return nil, fmt.Errorf("ensure kafka topic: %w", err)
	}
	pub, err := kafka.NewSaramaPublisher(pc)
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	a.closers = append(a.closers, closerFunc(pub.Close))
	return events.NewKafkaDocumentEventPublisher(pub, kc.EventTopic)
}
