package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

// HTTPGateway talks to the OCR gateway over HTTP. Non-2xx responses are not
// errors here; callers interpret the status code.
type HTTPGateway struct {
	client *http.Client
	logger *slog.Logger
}

func NewHTTPGateway(client *http.Client, logger *slog.Logger) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGateway{client: client, logger: logger}
}

func (g *HTTPGateway) Upload(ctx context.Context, endpoint string, payload any) (int, error) {
	bs, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, _, err := g.do(req, false)
	return status, err
}

func (g *HTTPGateway) FetchResult(ctx context.Context, endpoint string, params map[string]string) (int, []byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return 0, nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return g.do(req, true)
}

func (g *HTTPGateway) do(req *http.Request, readBody bool) (int, []byte, error) {
	reqID := common.RequestIDFromContext(req.Context())
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	start := time.Now()

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("gateway.http.send_error",
			"req_id", reqID,
			"method", req.Method,
			"host", req.URL.Host,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return 0, nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			g.logger.Warn("gateway.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	var raw []byte
	if readBody {
		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
		}
	}

	g.logger.Info("gateway.http.response",
		"req_id", reqID,
		"method", req.Method,
		"host", req.URL.Host,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp.StatusCode, raw, nil
}
