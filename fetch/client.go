package fetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig configures the HTTP client of one upstream provider.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RateLimitRPS float64 // 0 = unlimited
}

// Client issues GET requests against one provider and maps failures onto
// the fetch error taxonomy.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a Client. Retries, when enabled, only cover the
// retryable failures: no response at all, or HTTP 500.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	rc := resty.New().
		SetLogger(newRestyLogger(logger)).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled)
			}
			return r != nil && r.StatusCode() == http.StatusInternalServerError
		})
	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// restyLogger sends resty's own messages, such as retry attempts, to zap.
type restyLogger struct {
	s *zap.SugaredLogger
}

func newRestyLogger(logger *zap.Logger) restyLogger {
	return restyLogger{s: logger.WithOptions(zap.AddCallerSkip(1)).With(zap.String("component", "resty")).Sugar()}
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.s.Errorf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.s.Warnf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.s.Debugf(format, v...) }

// Get fetches path with the given query and returns the status code and
// body of a 2xx response. endpoint labels the request in errors and logs.
func (c *Client) Get(ctx context.Context, endpoint, path string, query map[string]string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, networkError(endpoint, err)
	}
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		c.logger.Warn("upstream unreachable",
			zap.String("endpoint", endpoint), zap.String("path", path), zap.Error(err))
		return 0, nil, networkError(endpoint, err)
	}
	status := resp.StatusCode()
	c.logger.Debug("upstream response",
		zap.String("endpoint", endpoint),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	if !resp.IsSuccess() {
		return status, nil, statusError(endpoint, status)
	}
	return status, resp.Body(), nil
}
