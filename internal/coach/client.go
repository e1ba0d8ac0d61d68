// Package coach talks to the interview coaching backend.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpproxy"
)

// DefaultTimeout bounds a single exchange
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read
const maxBodySize = 1 << 20

// Options configures a Client
type Options struct {
	BaseURL       string
	InterviewPath string
	Timeout       time.Duration
	UserAgent     string
	HTTPProxy     string // empty falls back to the environment
	NoProxy       string
	Logger        *slog.Logger
}

// Client handles communication with the coaching backend
type Client struct {
	baseURL       string
	interviewPath string
	userAgent     string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a new coaching client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.InterviewPath == "" {
		opts.InterviewPath = "/api/interview"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "interview-coach/1.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFunc(opts.HTTPProxy, opts.NoProxy)

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		interviewPath: "/" + strings.TrimLeft(opts.InterviewPath, "/"),
		userAgent:     opts.UserAgent,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: opts.Logger,
	}
}

// proxyFunc builds the transport's proxy selector from explicit settings,
// falling back to HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
func proxyFunc(httpProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
		cfg.HTTPSProxy = httpProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}
	fn := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}

// SendMessage posts one question and returns the coach's reply
func (c *Client) SendMessage(ctx context.Context, message string) (*InterviewResponse, error) {
	jsonData, err := json.Marshal(InterviewRequest{Message: strings.TrimSpace(message)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + c.interviewPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := classifyTransport(err)
		c.logger.Warn("interview request failed",
			"request_id", requestID,
			"url", endpoint,
			"duration", time.Since(start),
			"timeout", IsTimeout(classified),
			"error", err)
		return nil, classified
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logger.Warn("failed to read interview response", "request_id", requestID, "error", err)
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		c.logger.Warn("coaching service returned an error",
			"request_id", requestID,
			"status", resp.StatusCode,
			"detail", svcErr.Detail)
		return nil, svcErr
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		c.logger.Warn("malformed interview response", "request_id", requestID, "error", err)
		return nil, &NetworkError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if wire.Reply == nil {
		c.logger.Warn("interview response has no reply", "request_id", requestID)
		return nil, &NetworkError{Err: fmt.Errorf("response has no reply field")}
	}

	c.logger.Debug("interview exchange complete",
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"reply_bytes", len(*wire.Reply))

	return &InterviewResponse{Reply: *wire.Reply}, nil
}

// Ping checks that the backend accepts connections. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	resp.Body.Close()
	return nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}
