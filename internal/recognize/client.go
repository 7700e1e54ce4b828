package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/passport-tracker/internal/common"
)

// Config holds document-reader client settings.
type Config struct {
	BaseURL    string
	Scenario   string        // e.g. "FullProcess"
	Timeout    time.Duration // per-request HTTP timeout
	MaxRetries int           // transient-failure retries; rate limits are not retried here
	RetryBase  time.Duration // first backoff step, doubled per attempt
}

// Client calls the document-reader web service.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Scenario == "" {
		cfg.Scenario = "FullProcess"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 2 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// rateLimitMarkers are matched against lower-cased response bodies; some
// deployments return 200/500 with a quota message instead of a clean 429.
var rateLimitMarkers = []string{
	"rate limit", "too many requests", "quota", "throttle", "ratelimit_exceeded",
}

// Recognize sends 1..N base64 images for one document and returns the decoded
// response plus the raw payload (for the per-applicant dump). Transient
// failures are retried with exponential backoff; rate-limit responses return
// immediately with common.ErrRateLimited in the chain so the pipeline can
// cool down.
func (c *Client) Recognize(ctx context.Context, images []string) (*Response, []byte, error) {
	if len(images) == 0 {
		return nil, nil, common.NewAppError("RECOGNIZE_ERROR", "no images to process", common.ErrInvalidInput)
	}

	req := Request{
		ProcessParam: ProcessParam{
			Scenario:         c.cfg.Scenario,
			ResultTypeOutput: []string{"Status", "Text"},
		},
	}
	for _, img := range images {
		req.List = append(req.List, ImageEntry{ImageData: img})
	}

	var lastErr error
	var raw []byte
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBase << (attempt - 1)
			c.logger.Warn("recognize.retry", "attempt", attempt, "backoff", backoff.String(), "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, raw, ctx.Err()
			}
		}

		var retryable bool
		raw, lastErr, retryable = c.post(ctx, req)
		if lastErr == nil {
			break
		}
		if !retryable {
			return nil, raw, lastErr
		}
	}
	if lastErr != nil {
		return nil, raw, lastErr
	}

	if err := ValidateJSONAgainstSchema(BuildResponseJSONSchema(), raw); err != nil {
		return nil, raw, common.NewAppError("RECOGNIZE_ERROR", "response failed schema validation", err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, raw, fmt.Errorf("decode response: %w", err)
	}
	return &resp, raw, nil
}

// post performs one request. The bool result reports whether the failure is
// worth retrying (network errors and 5xx yes; 4xx and rate limits no).
func (c *Client) post(ctx context.Context, body Request) ([]byte, error, bool) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err), false
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/process"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err), false
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("recognize.http.request",
		"req_id", reqID,
		"url", url,
		"images", len(body.List),
		"content_length", len(bs),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("recognize.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err, true
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("recognize.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("recognize.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode/100 != 2 && isRateLimitBody(raw)) {
		return raw, common.NewAppError("RECOGNIZE_RATE_LIMIT",
			fmt.Sprintf("status %d", resp.StatusCode), common.ErrRateLimited), false
	}
	if resp.StatusCode/100 == 5 {
		return raw, fmt.Errorf("server error: status %d", resp.StatusCode), true
	}
	if resp.StatusCode/100 != 2 {
		return raw, fmt.Errorf("non-2xx status: %d", resp.StatusCode), false
	}
	return raw, nil, false
}

func isRateLimitBody(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	body := strings.ToLower(string(raw))
	for _, marker := range rateLimitMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
