package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skypro1111/voicecapture/internal/audio"
	"github.com/skypro1111/voicecapture/internal/metrics"
)

const (
	recognizePath = "/api/v1/asr"
	healthPath    = "/health"
)

// Client provides HTTP client functionality for recognition requests
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	semaphore  chan struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// Statistics
	totalRequests     uint64
	successRequests   uint64
	failedRequests    uint64
	timeoutRequests   uint64
	cancelledRequests uint64
	avgResponseTime   time.Duration

	mu sync.RWMutex
}

// Config contains recognition client configuration
type Config struct {
	ServiceURL    string
	Timeout       time.Duration
	HealthTimeout time.Duration
	Language      string
	Keys          string
	UserAgent     string
	EnableHTTP2   bool
	MaxConcurrent int
	CacheDir      string // when set, every submitted WAV is kept here
	Format        audio.Format
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests     uint64        `json:"total_requests"`
	SuccessRequests   uint64        `json:"success_requests"`
	FailedRequests    uint64        `json:"failed_requests"`
	TimeoutRequests   uint64        `json:"timeout_requests"`
	CancelledRequests uint64        `json:"cancelled_requests"`
	SuccessRate       float64       `json:"success_rate"`
	AvgResponseTime   time.Duration `json:"avg_response_time"`
	ActiveRequests    int           `json:"active_requests"`
}

// NewClient creates a new recognition HTTP client
func NewClient(config Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if config.ServiceURL == "" {
		return nil, fmt.Errorf("service URL cannot be empty")
	}

	u, err := url.Parse(config.ServiceURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", config.ServiceURL)
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	if config.HealthTimeout <= 0 {
		config.HealthTimeout = 3 * time.Second
	}

	if config.Language == "" {
		config.Language = "auto"
	}

	if config.Keys == "" {
		config.Keys = "audio_input"
	}

	if config.UserAgent == "" {
		config.UserAgent = "voicecapture/1.0"
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}

	if config.Format == (audio.Format{}) {
		config.Format = audio.DefaultFormat
	}

	httpClient, err := NewHTTPClient(config.EnableHTTP2)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     config,
		baseURL:    strings.TrimRight(config.ServiceURL, "/"),
		httpClient: httpClient,
		semaphore:  make(chan struct{}, config.MaxConcurrent),
		logger:     logger,
		metrics:    m,
	}, nil
}

// Recognize submits one recording and waits for its outcome. The request
// is bounded by the configured timeout and aborted when ctx is cancelled.
func (c *Client) Recognize(ctx context.Context, requestID string, pcm []byte) Result {
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return CancelledResult(requestID)
	}

	startTime := time.Now()
	c.incrementTotalRequests()
	c.metrics.RecordRecognitionRequest()

	c.logger.Debug("Sending recognition request",
		slog.String("request_id", requestID),
		slog.Int("pcm_bytes", len(pcm)),
		slog.Duration("audio_duration", c.config.Format.Duration(len(pcm))))

	text, err := c.doRequest(ctx, requestID, pcm)
	elapsed := time.Since(startTime)

	if err != nil {
		c.recordFailure(err, elapsed)
		return ErrorResult(requestID, err)
	}

	c.incrementSuccessRequests()
	c.updateAvgResponseTime(elapsed)
	c.metrics.RecordRecognitionSuccess(elapsed.Seconds())

	c.logger.Info("Recognition completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", elapsed),
		slog.Int("text_length", len(text)))

	return TextResult(requestID, text)
}

// doRequest performs a single HTTP request. Every returned error is an *Error.
func (c *Client) doRequest(ctx context.Context, requestID string, pcm []byte) (string, error) {
	wavData, err := audio.EncodeWAV(pcm, c.config.Format)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}

	c.cacheWAV(requestID, wavData)

	body, contentType, err := c.createMultipartRequest(wavData)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+recognizePath, body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &Error{Kind: KindHTTP, StatusCode: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, reqCtx, err)
	}

	return c.parseResponse(requestID, respBody)
}

// classify maps a transport-level failure to cancelled, timeout, or transport
func classify(parent, reqCtx context.Context, err error) *Error {
	if errors.Is(parent.Err(), context.Canceled) {
		return &Error{Kind: KindCancelled, Err: err}
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}

// parseResponse extracts result[0].text from a 200 response body
func (c *Client) parseResponse(requestID string, body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", &Error{Kind: KindEmptyResponse}
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &Error{Kind: KindParse, Err: err}
	}

	// Only result[0].text is part of the contract. Any other shape is
	// well-formed JSON without content.
	first, ok := firstEntry(doc)
	if !ok {
		return "", &Error{Kind: KindNoContent}
	}

	c.logger.Debug("Recognition response",
		slog.String("request_id", requestID),
		slog.String("key", stringField(first, "key")),
		slog.String("raw_text", stringField(first, "raw_text")),
		slog.String("clean_text", stringField(first, "clean_text")))

	text := stringField(first, "text")
	if text == "" {
		return "", &Error{Kind: KindNoContent}
	}

	return text, nil
}

// createMultipartRequest creates the multipart/form-data body:
// files (audio.wav, audio/wav), lang, keys
func (c *Client) createMultipartRequest(wavData []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="files"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")

	fileWriter, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("lang", c.config.Language); err != nil {
		return nil, "", fmt.Errorf("failed to write field lang: %w", err)
	}

	if err := writer.WriteField("keys", c.config.Keys); err != nil {
		return nil, "", fmt.Errorf("failed to write field keys: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// cacheWAV keeps a copy of the submitted audio when a cache directory is set
func (c *Client) cacheWAV(requestID string, wavData []byte) {
	if c.config.CacheDir == "" {
		return
	}

	name := requestID
	if name == "" {
		name = time.Now().Format("20060102-150405.000")
	}
	path := filepath.Join(c.config.CacheDir, name+".wav")

	if err := os.MkdirAll(c.config.CacheDir, 0o755); err != nil {
		c.logger.Warn("Failed to create audio cache directory",
			slog.String("dir", c.config.CacheDir),
			slog.String("error", err.Error()))
		return
	}

	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		c.logger.Warn("Failed to cache audio",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	c.logger.Debug("Cached audio", slog.String("path", path), slog.Int("bytes", len(wavData)))
}

// CheckAvailability reports whether GET /health answers with a 2xx status
// within the health timeout. It is advisory and never blocks a recording.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Recognition service health check failed",
			slog.String("url", c.baseURL+healthPath),
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ServiceURL returns the normalized service base URL
func (c *Client) ServiceURL() string {
	return c.baseURL
}

func (c *Client) recordFailure(err error, elapsed time.Duration) {
	kind := KindTransport
	var rerr *Error
	if errors.As(err, &rerr) {
		kind = rerr.Kind
	}

	c.mu.Lock()
	switch kind {
	case KindCancelled:
		c.cancelledRequests++
	case KindTimeout:
		c.timeoutRequests++
		c.failedRequests++
	default:
		c.failedRequests++
	}
	c.mu.Unlock()

	c.metrics.RecordRecognitionFailure(kind.String(), elapsed.Seconds())

	if kind == KindCancelled {
		c.logger.Debug("Recognition request aborted", slog.Duration("duration", elapsed))
		return
	}

	c.logger.Warn("Recognition failed",
		slog.String("kind", kind.String()),
		slog.String("reason", err.Error()),
		slog.Duration("duration", elapsed))
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:     c.totalRequests,
		SuccessRequests:   c.successRequests,
		FailedRequests:    c.failedRequests,
		TimeoutRequests:   c.timeoutRequests,
		CancelledRequests: c.cancelledRequests,
		SuccessRate:       successRate,
		AvgResponseTime:   c.avgResponseTime,
		ActiveRequests:    len(c.semaphore),
	}
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
