// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，由 Init 填充，仅供 main 使用。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Session       SessionConfig       `mapstructure:"session"`
	Documents     DocumentsConfig     `mapstructure:"documents"`
	Chunking      ChunkingConfig      `mapstructure:"chunking"`
	Retrieval     RetrievalConfig     `mapstructure:"retrieval"`
	Index         IndexConfig         `mapstructure:"index"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// SessionConfig 配置会话令牌。
type SessionConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

// DocumentsConfig 配置文档来源。
// MaxDocuments 限制参与切块的文档（页）数量，0 表示不限制。
type DocumentsConfig struct {
	Source       string `mapstructure:"source"`
	Dir          string `mapstructure:"dir"`
	BucketPrefix string `mapstructure:"bucket_prefix"`
	MaxDocuments int    `mapstructure:"max_documents"`
}

// ChunkingConfig 配置文本切块窗口。
type ChunkingConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// RetrievalConfig 配置检索参数。
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// IndexConfig 选择向量索引后端：memory 或 elasticsearch。
type IndexConfig struct {
	Backend string `mapstructure:"backend"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL   string `mapstructure:"server_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	APIKeyEnv  string              `mapstructure:"api_key_env"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Prompt     LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示使用服务端默认值）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置提示词规则与上下文包裹格式。
type LLMPromptConfig struct {
	Rules          string `mapstructure:"rules"`
	RefStart       string `mapstructure:"ref_start"`
	RefEnd         string `mapstructure:"ref_end"`
	QuestionPrefix string `mapstructure:"question_prefix"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置，用于保存切块记录。
type MySQLConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置，用于保存对话历史。
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

const (
	SourceDir   = "dir"
	SourceMinIO = "minio"

	BackendMemory        = "memory"
	BackendElasticsearch = "elasticsearch"
)

// DefaultRules 是原始问答程序使用的指令文本。
const DefaultRules = "Answer the questions based on the provided context only.\n" +
	"Please provide the most accurate response based on the question"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "")

	v.SetDefault("session.jwt_secret", "change-me")
	v.SetDefault("session.token_expire_hours", 24)

	v.SetDefault("documents.source", SourceDir)
	v.SetDefault("documents.dir", "./pdfFiles")
	v.SetDefault("documents.bucket_prefix", "")
	v.SetDefault("documents.max_documents", 20)

	v.SetDefault("chunking.chunk_size", 1000)
	v.SetDefault("chunking.chunk_overlap", 200)

	v.SetDefault("retrieval.top_k", 4)

	v.SetDefault("index.backend", BackendMemory)

	v.SetDefault("tika.server_url", "http://localhost:9998")
	v.SetDefault("tika.timeout_secs", 120)

	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.api_key_env", "GOOGLE_API_KEY")
	v.SetDefault("embedding.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.batch_size", 32)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", "GROQ_API_KEY")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "gemma2-9b-it")
	v.SetDefault("llm.generation.temperature", 0)
	v.SetDefault("llm.generation.top_p", 0)
	v.SetDefault("llm.generation.max_tokens", 0)
	v.SetDefault("llm.prompt.rules", DefaultRules)
	v.SetDefault("llm.prompt.ref_start", "<context>")
	v.SetDefault("llm.prompt.ref_end", "<context>")
	v.SetDefault("llm.prompt.question_prefix", "Questions:")

	v.SetDefault("database.mysql.enabled", false)
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("elasticsearch.addresses", "http://localhost:9200")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index_name", "doc_qa_chunks")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "pdf-files")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "doc-qa-events")
}

// Load 从指定路径读取 YAML 配置。文件不存在时仅使用默认值与环境变量。
// 环境变量以 DOCQA_ 为前缀，键中的 "." 替换为 "_"，例如 DOCQA_RETRIEVAL_TOP_K。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DOCQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	cfg.resolveSecrets()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init 加载配置到全局变量 Conf，失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}

// resolveSecrets 在启动时从进程环境读取两个服务商的密钥。
// 密钥缺失不是启动错误：对应的服务调用会以 ErrProviderUnavailable 失败。
func (c *Config) resolveSecrets() {
	if c.Embedding.APIKey == "" && c.Embedding.APIKeyEnv != "" {
		c.Embedding.APIKey = os.Getenv(c.Embedding.APIKeyEnv)
	}
	if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
}

// Validate 检查配置之间的约束。
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size 必须大于 0, 当前为 %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap 必须满足 0 <= overlap < chunk_size, 当前为 %d/%d",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Documents.MaxDocuments < 0 {
		return fmt.Errorf("documents.max_documents 不能为负数: %d", c.Documents.MaxDocuments)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k 必须大于 0, 当前为 %d", c.Retrieval.TopK)
	}
	switch c.Documents.Source {
	case SourceDir, SourceMinIO:
	default:
		return fmt.Errorf("未知的 documents.source: %q", c.Documents.Source)
	}
	switch c.Index.Backend {
	case BackendMemory, BackendElasticsearch:
	default:
		return fmt.Errorf("未知的 index.backend: %q", c.Index.Backend)
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Session.TokenExpireHours <= 0 {
		c.Session.TokenExpireHours = 24
	}
	return nil
}
