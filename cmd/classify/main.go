package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/internal/app"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/expiry"
	"github.com/joseph-ayodele/pantry-tracker/internal/ingest"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
)

// printSink writes classified drafts to stdout instead of the pantry.
type printSink struct{}

func (printSink) AddItems(_ context.Context, _ int64, items []entity.PantryItemDraft) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(cfg.Log)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "classify <receipt.json | dir>")
		os.Exit(2)
	}
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	resolver := expiry.NewResolver(expiry.DefaultRegistry(), nil, logger)
	classifier := receipts.NewClassifier(client, printSink{}, resolver, logger)

	ingestor := ingest.NewIngestor(classifier, logger, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	path := os.Args[1]
	info, err := os.Stat(path)
	if err != nil {
		logger.Error("stat input", "path", path, "error", err)
		os.Exit(1)
	}
	start := time.Now()
	if info.IsDir() {
		_, stats, err := ingestor.IngestDirectory(ctx, 0, path)
		if err != nil || stats.Failed > 0 {
			logger.Error("classify.dir.error", "failed", stats.Failed, "error", err)
			os.Exit(1)
		}
		return
	}

	res, err := ingestor.IngestPath(ctx, 0, path)
	if err != nil {
		logger.Error("classify.error", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("classify.ok", "items", res.Items, "elapsed_ms", time.Since(start).Milliseconds())
}
