package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultConfigPath = "configs/config.toml"

const defaultSystemPrompt = `You are an intelligent assistant that helps users understand their uploaded documents. Your role is to:
- Explain concepts from the documents clearly and concisely
- Connect ideas across different documents
- Provide practical examples when relevant

When answering questions:
1. Base your answers on the provided context from the user's documents
2. If the context doesn't contain relevant information, say so
3. Use clear, professional language
4. Cite which documents you're drawing from when relevant`

type MainConfig struct {
	AppName     string `toml:"appName"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Mode        string `toml:"mode"`
	TLSRedirect bool   `toml:"tlsRedirect"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
	Level   string `toml:"level"`
}

type MilvusConfig struct {
	Address        string `toml:"address"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	DBName         string `toml:"dbName"`
	CollectionName string `toml:"collectionName"`
	VectorDim      int    `toml:"vectorDim"`
	MetricType     string `toml:"metricType"`
}

// VectorStoreConfig 选择向量库后端：milvus 或 memory（本地调试）
type VectorStoreConfig struct {
	Backend         string `toml:"backend"`
	UpsertBatchSize int    `toml:"upsertBatchSize"`
	ScanLimit       int    `toml:"scanLimit"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type KafkaConfig struct {
	Brokers     []string `toml:"brokers"`
	ClientID    string   `toml:"clientID"`
	EventTopic  string   `toml:"eventTopic"`
	Partitions  int32    `toml:"partitions"`
	Replication int16    `toml:"replication"`
}

type AIEmbeddingConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type AIChatModelConfig struct {
	Provider        string  `toml:"provider"`
	APIKey          string  `toml:"apiKey"`
	AccessKey       string  `toml:"accessKey"`
	SecretKey       string  `toml:"secretKey"`
	BaseURL         string  `toml:"baseURL"`
	Region          string  `toml:"region"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	MaxTokens       int     `toml:"maxTokens"`
	TimeoutSeconds  int     `toml:"timeoutSeconds"`
	ByAzure         bool    `toml:"byAzure"`
	AzureAPIVersion string  `toml:"azureApiVersion"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// RAGConfig 切分与召回参数，启动时固定（top_k 允许请求级覆盖）
type RAGConfig struct {
	ChunkStrategy string  `toml:"chunkStrategy"`
	ChunkSize     int     `toml:"chunkSize"`
	ChunkOverlap  int     `toml:"chunkOverlap"`
	TopK          int     `toml:"topK"`
	MinScore      float32 `toml:"minScore"`
	HistoryTurns  int     `toml:"historyTurns"`
	SystemPrompt  string  `toml:"systemPrompt"`
}

type UploadConfig struct {
	MaxBytes int64 `toml:"maxBytes"`
}

type MCPConfig struct {
	Enabled bool   `toml:"enabled"`
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type Config struct {
	MainConfig        `toml:"mainConfig"`
	LogConfig         `toml:"logConfig"`
	MilvusConfig      `toml:"milvusConfig"`
	VectorStoreConfig `toml:"vectorStoreConfig"`
	MysqlConfig       `toml:"mysqlConfig"`
	KafkaConfig       `toml:"kafkaConfig"`
	AIConfig          `toml:"aiConfig"`
	RAGConfig         `toml:"ragConfig"`
	UploadConfig      `toml:"uploadConfig"`
	MCPConfig         `toml:"mcpConfig"`
}

// Default 返回与原始部署一致的默认配置
func Default() *Config {
	return &Config{
		MainConfig: MainConfig{AppName: "DocPilot", Host: "0.0.0.0", Port: 8000, Mode: "release"},
		LogConfig:  LogConfig{Level: "info"},
		MilvusConfig: MilvusConfig{
			DBName:         "docpilot",
			CollectionName: "document_chunks",
			VectorDim:      1536,
			MetricType:     "COSINE",
		},
		VectorStoreConfig: VectorStoreConfig{Backend: "milvus", UpsertBatchSize: 100, ScanLimit: 1000, TimeoutSeconds: 30},
		KafkaConfig:       KafkaConfig{ClientID: "docpilot", EventTopic: "docpilot.document.events", Partitions: 1, Replication: 1},
		AIConfig: AIConfig{
			Embedding: AIEmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536, TimeoutSeconds: 30},
			ChatModel: AIChatModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 1000, TimeoutSeconds: 120},
		},
		RAGConfig: RAGConfig{
			ChunkStrategy: "boundary",
			ChunkSize:     1000,
			ChunkOverlap:  200,
			TopK:          5,
			MinScore:      0.7,
			HistoryTurns:  6,
			SystemPrompt:  defaultSystemPrompt,
		},
		UploadConfig: UploadConfig{MaxBytes: 20 << 20},
		MCPConfig:    MCPConfig{Name: "docpilot", Version: "1.0.0"},
	}
}

// Load 依次应用：默认值 → .env → toml 文件 → 环境变量覆盖。
// path 为空时读取 DOCPILOT_CONFIG 或 DefaultConfigPath；文件不存在不算错误。
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	conf := Default()
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("DOCPILOT_CONFIG"))
	}
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := applyEnv(conf); err != nil {
		return nil, err
	}
	conf.normalize()
	return conf, nil
}

func applyEnv(conf *Config) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString(&conf.AIConfig.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&conf.AIConfig.ChatModel.APIKey, "OPENAI_API_KEY")
	setString(&conf.AIConfig.Embedding.BaseURL, "OPENAI_BASE_URL")
	setString(&conf.AIConfig.ChatModel.BaseURL, "OPENAI_BASE_URL")
	setString(&conf.AIConfig.Embedding.Model, "EMBEDDING_MODEL")
	setString(&conf.AIConfig.ChatModel.Model, "CHAT_MODEL")
	setString(&conf.RAGConfig.SystemPrompt, "SYSTEM_PROMPT")
	setString(&conf.MilvusConfig.Address, "MILVUS_ADDRESS")

	if err := setInt(&conf.AIConfig.Embedding.Dimensions, "EMBEDDING_DIMENSIONS"); err != nil {
		return err
	}
	if err := setInt(&conf.RAGConfig.ChunkSize, "CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setInt(&conf.RAGConfig.ChunkOverlap, "CHUNK_OVERLAP"); err != nil {
		return err
	}
	if err := setInt(&conf.RAGConfig.TopK, "TOP_K"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("MIN_SCORE")); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("env MIN_SCORE: %w", err)
		}
		conf.RAGConfig.MinScore = float32(f)
	}
	return nil
}

// normalize 兜底非法值；embedding 维度是向量库维度的唯一来源
func (c *Config) normalize() {
	if c.AIConfig.Embedding.Dimensions > 0 {
		c.MilvusConfig.VectorDim = c.AIConfig.Embedding.Dimensions
	}
	if c.MilvusConfig.VectorDim <= 0 {
		c.MilvusConfig.VectorDim = 1536
	}
	if c.VectorStoreConfig.UpsertBatchSize <= 0 {
		c.VectorStoreConfig.UpsertBatchSize = 100
	}
	if c.VectorStoreConfig.ScanLimit <= 0 {
		c.VectorStoreConfig.ScanLimit = 1000
	}
	if c.VectorStoreConfig.TimeoutSeconds <= 0 {
		c.VectorStoreConfig.TimeoutSeconds = 30
	}
	if c.RAGConfig.TopK <= 0 {
		c.RAGConfig.TopK = 5
	}
	if c.RAGConfig.HistoryTurns <= 0 {
		c.RAGConfig.HistoryTurns = 6
	}
	if strings.TrimSpace(c.RAGConfig.SystemPrompt) == "" {
		c.RAGConfig.SystemPrompt = defaultSystemPrompt
	}
	if c.UploadConfig.MaxBytes <= 0 {
		c.UploadConfig.MaxBytes = 20 << 20
	}
	if c.MainConfig.Port <= 0 {
		c.MainConfig.Port = 8000
	}
}
