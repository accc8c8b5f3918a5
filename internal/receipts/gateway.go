package receipts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

var (
	// ErrUploadFailed is returned when the gateway rejects an upload.
	ErrUploadFailed = errors.New("receipt upload failed")
	// ErrGatewayNotConfigured is returned when an endpoint URL is missing.
	ErrGatewayNotConfigured = errors.New("receipt gateway endpoint not configured")
)

// GatewayTransportError describes a failed exchange with the OCR gateway.
type GatewayTransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayTransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gateway %s: unexpected status %d", e.Op, e.StatusCode)
	}
}

func (e *GatewayTransportError) Unwrap() error { return e.Err }

// Gateway is the OCR gateway transport.
type Gateway interface {
	Upload(ctx context.Context, url string, payload any) (int, error)
	FetchResult(ctx context.Context, url string, params map[string]string) (int, []byte, error)
}

// ResultStore persists the raw gateway result once per (user, receipt).
type ResultStore interface {
	Get(ctx context.Context, userID int64, receiptID string) (*entity.ReceiptResult, error)
	// Put stores r unless a result already exists, in which case it returns false.
	Put(ctx context.Context, r *entity.ReceiptResult) (bool, error)
	Delete(ctx context.Context, userID int64, receiptID string) error
}

// ReceiptClassifier is satisfied by *Classifier.
type ReceiptClassifier interface {
	Classify(ctx context.Context, userID int64, payload ReceiptPayload) ([]entity.PantryItemDraft, error)
}

type uploadRequest struct {
	UserID      string `json:"user_id"`
	ReceiptID   string `json:"receipt_id"`
	ImageBase64 string `json:"image_base64"`
}

// GatewayService drives a receipt through upload and polling against the OCR gateway.
type GatewayService struct {
	gateway     Gateway
	store       ResultStore
	classifier  ReceiptClassifier
	uploadURL   string
	retrieveURL string
	newID       func() string
	logger      *slog.Logger
}

func NewGatewayService(gateway Gateway, store ResultStore, classifier ReceiptClassifier, uploadURL, retrieveURL string, logger *slog.Logger) *GatewayService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayService{
		gateway:     gateway,
		store:       store,
		classifier:  classifier,
		uploadURL:   uploadURL,
		retrieveURL: retrieveURL,
		newID:       NewReceiptID,
		logger:      logger,
	}
}

// NewReceiptID returns a fresh receipt identifier ("<uuid>.jpg").
func NewReceiptID() string {
	return uuid.NewString() + ".jpg"
}

// Upload sends image to the gateway and returns the new receipt id. Any 2xx
// response is success; there is no retry.
func (s *GatewayService) Upload(ctx context.Context, userID int64, image []byte) (string, error) {
	if s.uploadURL == "" {
		s.logger.Error("receipt.upload.not_configured")
		return "", ErrGatewayNotConfigured
	}

	receiptID := s.newID()
	payload := uploadRequest{
		UserID:      strconv.FormatInt(userID, 10),
		ReceiptID:   receiptID,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	}

	status, err := s.gateway.Upload(ctx, s.uploadURL, payload)
	if err != nil {
		s.logger.Error("receipt.upload.transport_error", "user_id", userID, "receipt_id", receiptID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, &GatewayTransportError{Op: "upload", Err: err})
	}
	if status < 200 || status >= 300 {
		s.logger.Error("receipt.upload.rejected", "user_id", userID, "receipt_id", receiptID, "status", status)
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, &GatewayTransportError{Op: "upload", StatusCode: status})
	}

	s.logger.Info("receipt.upload.ok", "user_id", userID, "receipt_id", receiptID, "bytes", len(image))
	return receiptID, nil
}

// Poll reports the state of a receipt. A stored result short-circuits to
// PROCESSED without calling the gateway. A fresh 200 result is stored before
// classification, and a caller that loses the store race does not classify,
// so pantry items are written at most once per receipt. The returned error
// explains an ERROR status; it is nil for PENDING and PROCESSED.
func (s *GatewayService) Poll(ctx context.Context, userID int64, receiptID string) (constants.ReceiptStatus, error) {
	logger := s.logger.With("user_id", userID, "receipt_id", receiptID)

	stored, err := s.store.Get(ctx, userID, receiptID)
	if err != nil {
		logger.Error("receipt.poll.store_get_error", "error", err)
		return constants.ReceiptStatusError, fmt.Errorf("load stored result: %w", err)
	}
	if stored != nil {
		logger.Debug("receipt.poll.already_processed")
		return constants.ReceiptStatusProcessed, nil
	}

	if s.retrieveURL == "" {
		logger.Error("receipt.poll.not_configured")
		return constants.ReceiptStatusError, ErrGatewayNotConfigured
	}

	status, body, err := s.gateway.FetchResult(ctx, s.retrieveURL, map[string]string{
		"user_id":    strconv.FormatInt(userID, 10),
		"receipt_id": receiptID,
	})
	if err != nil {
		logger.Error("receipt.poll.transport_error", "error", err)
		return constants.ReceiptStatusError, &GatewayTransportError{Op: "fetch", Err: err}
	}

	switch status {
	case http.StatusAccepted:
		logger.Debug("receipt.poll.pending")
		return constants.ReceiptStatusPending, nil
	case http.StatusOK:
	default:
		logger.Warn("receipt.poll.unexpected_status", "status", status)
		return constants.ReceiptStatusError, &GatewayTransportError{Op: "fetch", StatusCode: status}
	}

	payload, err := ParsePayload(body)
	if err != nil {
		logger.Error("receipt.poll.invalid_json", "error", err)
		return constants.ReceiptStatusError, &GatewayTransportError{Op: "fetch", StatusCode: status, Err: err}
	}

	result := &entity.ReceiptResult{
		UserID:    userID,
		ReceiptID: receiptID,
		Result:    body,
		Vendor:    payload.VendorName(),
		CreatedAt: time.Now().UTC(),
	}
	if total, ok := payload.TotalAmount(); ok {
		result.Total = total.StringFixed(2)
	}

	created, err := s.store.Put(ctx, result)
	if err != nil {
		logger.Error("receipt.poll.store_put_error", "error", err)
		return constants.ReceiptStatusError, fmt.Errorf("store result: %w", err)
	}
	if !created {
		logger.Info("receipt.poll.concurrent_poll_won")
		return constants.ReceiptStatusProcessed, nil
	}

	if _, err := s.classifier.Classify(ctx, userID, payload); err != nil {
		logger.Error("receipt.poll.classify_error", "error", err)
		if derr := s.store.Delete(context.WithoutCancel(ctx), userID, receiptID); derr != nil {
			logger.Error("receipt.poll.release_error", "error", derr)
		}
		return constants.ReceiptStatusError, err
	}

	logger.Info("receipt.poll.processed", "vendor", result.Vendor, "total", result.Total)
	return constants.ReceiptStatusProcessed, nil
}
