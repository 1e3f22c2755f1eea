// Package main 启动终端问答界面，使用本地目录与内存索引。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/index"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/internal/service"
	"doc-qa-go/internal/session"
	"doc-qa-go/internal/source"
	"doc-qa-go/internal/tui"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/tika"
)

func main() {
	cfgPath := flag.String("config", "./configs/config.yaml", "Path to config YAML")
	dir := flag.String("dir", "", "PDF directory (overrides documents.dir)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "读取 .env 失败: %v\n", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Documents.Dir = *dir
	}

	// 界面占用终端，日志只写文件
	log.InitFile(cfg.Log.Level, cfg.Log.OutputPath)
	defer log.Sync()

	splitter, err := pipeline.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "切块参数无效: %v\n", err)
		os.Exit(1)
	}
	embeddingClient := embedding.NewClient(cfg.Embedding)
	loader := source.NewDirectoryLoader(cfg.Documents.Dir, tika.NewClient(cfg.Tika))
	processor := pipeline.NewProcessor(loader, splitter, embeddingClient, index.MemoryFactory(), cfg.Documents.MaxDocuments, nil)

	qa := service.NewQAService(
		processor,
		embeddingClient,
		llm.NewClient(cfg.LLM),
		service.NewPromptTemplate(cfg.LLM.Prompt),
		cfg.Retrieval.TopK,
		nil,
		nil,
	)
	port := tui.SessionPort{QA: qa, State: session.NewStore().Create()}

	p := tea.NewProgram(tui.New(context.Background(), port), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "界面运行失败: %v\n", err)
		os.Exit(1)
	}
}
