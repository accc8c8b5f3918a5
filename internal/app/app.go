// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/pantry-tracker/internal/async"
	"github.com/joseph-ayodele/pantry-tracker/internal/chat"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/expiry"
	"github.com/joseph-ayodele/pantry-tracker/internal/export"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/pantry-tracker/internal/pantry"
	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository/dynamo"
	"github.com/joseph-ayodele/pantry-tracker/internal/server"
)

// App holds the constructed services. Fields are nil when their dependency
// is not configured.
type App struct {
	DB         *repository.DB
	Pool       *async.Pool
	Pantry     *pantry.Service
	Classifier *receipts.Classifier
	Gateway    *receipts.GatewayService
	UploadURLs *receipts.UploadURLService
	Chat       *chat.Service
	Sessions   *chat.SessionService
	Export     *export.Service

	logger *slog.Logger
}

// NewLogger returns the text logger every binary uses.
func NewLogger(cfg common.LogConfig) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

// New opens the database and builds every service from cfg.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{DB: db, logger: logger}

	a.Pool = async.NewPool(logger, async.WithName("llm"), async.WithWorkers(cfg.LLM.Workers))
	completer := llm.NewPooledCompleter(openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger), a.Pool)

	resolver := expiry.NewResolver(expiry.DefaultRegistry(), nil, logger)
	a.Pantry = pantry.NewService(repository.NewPantryItemRepository(db, logger), resolver, logger)
	a.Classifier = receipts.NewClassifier(completer, a.Pantry, resolver, logger)
	a.Export = export.NewService(a.Pantry, logger)

	history := repository.NewChatHistoryRepository(db, logger)
	a.Sessions = chat.NewSessionService(repository.NewChatSessionRepository(db, logger), history, logger)
	a.Chat = chat.NewService(completer, history, a.Sessions, logger,
		chat.WithPantry(a.Pantry),
		chat.WithHistorySize(cfg.LLM.HistorySize),
	)

	needAWS := cfg.Storage.ReceiptBucket != "" || cfg.ResultStore.Backend == "dynamodb"
	var (
		s3Client  *s3.Client
		dynClient *dynamodb.Client
	)
	if needAWS {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		s3Client = s3.NewFromConfig(awsCfg)
		dynClient = dynamodb.NewFromConfig(awsCfg)
	}

	var results receipts.ResultStore = repository.NewReceiptResultRepository(db, logger)
	if cfg.ResultStore.Backend == "dynamodb" {
		results = dynamo.NewResultStore(dynClient, cfg.ResultStore.DynamoDBTable, logger)
		logger.Info("result store", "backend", "dynamodb", "table", cfg.ResultStore.DynamoDBTable)
	}
	a.Gateway = receipts.NewGatewayService(
		receipts.NewHTTPGateway(&http.Client{Timeout: cfg.Gateway.Timeout}, logger),
		results, a.Classifier,
		cfg.Gateway.UploadURL, cfg.Gateway.RetrieveURL,
		logger,
	)
	if cfg.Storage.ReceiptBucket != "" {
		a.UploadURLs = receipts.NewS3UploadURLService(s3Client, cfg.Storage.ReceiptBucket, cfg.Storage.URLExpiry, logger)
	}
	return a, nil
}

// Handlers exposes the services to the HTTP router.
func (a *App) Handlers() *server.Handlers {
	h := &server.Handlers{
		Classifier: a.Classifier,
		Gateway:    a.Gateway,
		Pantry:     a.Pantry,
		Export:     a.Export,
		Chat:       a.Chat,
		Sessions:   a.Sessions,
		Logger:     a.logger,
	}
	if a.UploadURLs != nil {
		h.UploadURLs = a.UploadURLs
	}
	return h
}

// Close drains the LLM pool and closes the database.
func (a *App) Close(ctx context.Context) {
	if a.Pool != nil {
		a.Pool.Shutdown(ctx)
	}
	server.CloseDB(a.DB, a.logger)
}
