package receipts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// Presigner is the subset of *s3.PresignClient used to mint upload URLs.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadURL lets a client PUT a receipt image straight to object storage.
type UploadURL struct {
	ReceiptID string            `json:"receipt_id"`
	Key       string            `json:"key"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// UploadURLService issues presigned S3 upload URLs under "<user_id>/<receipt_id>".
type UploadURLService struct {
	presigner Presigner
	bucket    string
	expiry    time.Duration
	newID     func() string
	logger    *slog.Logger
}

func NewUploadURLService(presigner Presigner, bucket string, expiry time.Duration, logger *slog.Logger) *UploadURLService {
	if expiry <= 0 {
		expiry = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadURLService{presigner: presigner, bucket: bucket, expiry: expiry, newID: NewReceiptID, logger: logger}
}

// NewS3UploadURLService wires the service to an S3 client.
func NewS3UploadURLService(client *s3.Client, bucket string, expiry time.Duration, logger *slog.Logger) *UploadURLService {
	return NewUploadURLService(s3.NewPresignClient(client), bucket, expiry, logger)
}

func (s *UploadURLService) CreateUploadURL(ctx context.Context, userID int64) (*UploadURL, error) {
	if s.bucket == "" {
		return nil, errors.New("receipt upload bucket not configured")
	}
	receiptID := s.newID()
	key := path.Join(strconv.FormatInt(userID, 10), receiptID)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(constants.ImageContentTypes["jpg"]),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error("receipt.upload_url.presign_error", "user_id", userID, "bucket", s.bucket, "key", key, "error", err)
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for k, v := range req.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	s.logger.Info("receipt.upload_url.issued", "user_id", userID, "key", key)
	return &UploadURL{
		ReceiptID: receiptID,
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: time.Now().Add(s.expiry).UTC(),
	}, nil
}
