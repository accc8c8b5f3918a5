package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
)

// Ingestor classifies receipt JSON files from the local filesystem.
type Ingestor struct {
	classifier Classifier
	logger     *slog.Logger
	skipHidden bool
}

func NewIngestor(classifier Classifier, logger *slog.Logger, skipHidden bool) *Ingestor {
	return &Ingestor{classifier: classifier, logger: logger, skipHidden: skipHidden}
}

// IngestPath classifies a single receipt file.
func (i *Ingestor) IngestPath(ctx context.Context, userID int64, path string) (FileResult, error) {
	raw, res, err := readFile(path)
	if err != nil {
		return res, err
	}
	return i.classify(ctx, userID, raw, res)
}

// IngestDirectory walks root and classifies each .json file once per
// distinct content. Per-file failures are recorded and the walk continues.
func (i *Ingestor) IngestDirectory(ctx context.Context, userID int64, root string) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []FileResult
		stats   DirStats
	)
	seen := map[string]struct{}{}
	start := time.Now()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if i.skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isReceiptFile(path) {
			return nil
		}
		stats.Matched++

		raw, res, err := readFile(path)
		if err == nil {
			if _, dup := seen[res.HashHex]; dup {
				res.Deduplicated = true
				results = append(results, res)
				stats.Succeeded++
				stats.Deduplicated++
				i.logger.Debug("ingest.file.duplicate", "path", path, "hash", res.HashHex)
				return nil
			}
			seen[res.HashHex] = struct{}{}
			res, err = i.classify(ctx, userID, raw, res)
		}
		if err != nil {
			i.logger.Warn("ingest.file.error", "path", path, "error", err)
			res.Err = err.Error()
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		results = append(results, res)
		return nil
	})

	i.logger.Info("ingest.directory.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func (i *Ingestor) classify(ctx context.Context, userID int64, raw []byte, res FileResult) (FileResult, error) {
	payload, err := receipts.ParsePayload(raw)
	if err != nil {
		return res, err
	}
	drafts, err := i.classifier.Classify(ctx, userID, payload)
	if err != nil {
		return res, err
	}
	res.Items = len(drafts)
	i.logger.Info("ingest.file.ok", "path", res.Path, "items", res.Items)
	return res, nil
}

func readFile(path string) ([]byte, FileResult, error) {
	res := FileResult{Path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, res, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	res.HashHex = hex.EncodeToString(sum[:])
	return raw, res, nil
}
