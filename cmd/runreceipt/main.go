package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/app"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

func main() {
	userID := flag.Int64("user", 1, "user id the receipt belongs to")
	interval := flag.Duration("interval", 3*time.Second, "delay between polls")
	timeout := flag.Duration("timeout", 3*time.Minute, "give up after this long")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(cfg.Log)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runreceipt [-user N] <image-file>")
		os.Exit(2)
	}
	if ext := filepath.Ext(flag.Arg(0)); !constants.IsImageExt(ext) {
		logger.Error("unsupported image type", "ext", ext)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	image, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("read image", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	receiptID, err := a.Gateway.Upload(ctx, *userID, image)
	if err != nil {
		logger.Error("upload failed", "error", err)
		os.Exit(1)
	}
	logger.Info("receipt.uploaded", "receipt_id", receiptID, "bytes", len(image))

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		status, err := a.Gateway.Poll(ctx, *userID, receiptID)
		switch {
		case status == constants.ReceiptStatusProcessed:
			logger.Info("receipt.processed", "receipt_id", receiptID, "polls", i)
			return
		case err != nil:
			logger.Warn("receipt.poll.error", "receipt_id", receiptID, "poll", i, "error", err)
		default:
			logger.Info("receipt.poll", "receipt_id", receiptID, "poll", i, "status", status)
		}

		select {
		case <-ctx.Done():
			logger.Error("receipt.timeout", "receipt_id", receiptID, "polls", i)
			a.Close(context.Background())
			os.Exit(1)
		case <-ticker.C:
		}
	}
}
