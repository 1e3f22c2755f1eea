// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/handler"
	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/internal/repository"
	"doc-qa-go/internal/service"
	"doc-qa-go/internal/session"
	"doc-qa-go/internal/source"
	"doc-qa-go/pkg/database"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/es"
	"doc-qa-go/pkg/kafka"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"
	"doc-qa-go/pkg/tika"
	"doc-qa-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 0. 读取 .env（可选），密钥从进程环境获取
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "读取 .env 失败: %v\n", err)
	}

	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")
	if cfg.Embedding.APIKey == "" {
		log.Warnf("未设置 %s，构建索引与检索将失败", cfg.Embedding.APIKeyEnv)
	}
	if cfg.LLM.APIKey == "" {
		log.Warnf("未设置 %s，生成答案将失败", cfg.LLM.APIKeyEnv)
	}

	ctx := context.Background()

	// 3. 初始化可选的基础设施
	var chunkRepo repository.ChunkRepository
	if cfg.Database.MySQL.Enabled {
		db, err := database.InitMySQL(cfg.Database.MySQL.DSN, &model.ChunkRecord{})
		if err != nil {
			log.Fatal("MySQL 初始化失败", err)
		}
		chunkRepo = repository.NewChunkRepository(db)
	}

	conversationRepo := repository.NewMemoryConversationRepository()
	if cfg.Database.Redis.Enabled {
		rdb, err := database.InitRedis(ctx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		if err != nil {
			log.Fatal("Redis 初始化失败", err)
		}
		defer rdb.Close()
		conversationRepo = repository.NewConversationRepository(rdb)
	}

	publisher := kafka.NewNopPublisher()
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(cfg.Kafka)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("关闭 Kafka 生产者失败: %v", err)
		}
	}()

	newIndex := index.MemoryFactory()
	if cfg.Index.Backend == config.BackendElasticsearch {
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("es 初始化失败", err)
		}
		newIndex = es.Factory(esClient, cfg.Elasticsearch.IndexName)
	}

	// 4. 文档来源
	tikaClient := tika.NewClient(cfg.Tika)
	var loader source.Loader = source.NewDirectoryLoader(cfg.Documents.Dir, tikaClient)
	if cfg.Documents.Source == config.SourceMinIO {
		minioClient, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("MinIO 初始化失败", err)
		}
		// 本地目录中的 PDF 作为初始文件导入存储桶，已导入则跳过
		if n, err := source.SeedBucket(ctx, minioClient, cfg.MinIO.BucketName, cfg.Documents.BucketPrefix, cfg.Documents.Dir); err != nil {
			log.Warnf("初始化导入失败: %v", err)
		} else if n > 0 {
			log.Infof("初始化导入 %d 个文件", n)
		}
		loader = source.NewBucketLoader(minioClient, cfg.MinIO.BucketName, cfg.Documents.BucketPrefix, tikaClient)
	}

	// 5. 初始化 Service (依赖注入)
	splitter, err := pipeline.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		log.Fatal("切块参数无效", err)
	}
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	processor := pipeline.NewProcessor(loader, splitter, embeddingClient, newIndex, cfg.Documents.MaxDocuments, chunkRepo)

	jwtManager := token.NewJWTManager(cfg.Session.JWTSecret, cfg.Session.TokenExpireHours)
	services := handler.Services{
		QA: service.NewQAService(
			processor,
			embeddingClient,
			llmClient,
			service.NewPromptTemplate(cfg.LLM.Prompt),
			cfg.Retrieval.TopK,
			conversationRepo,
			publisher,
		),
		Session:      service.NewSessionService(session.NewStore(), jwtManager),
		Conversation: service.NewConversationService(conversationRepo),
		Document:     service.NewDocumentService(loader),
	}

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(services)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
