// Package external holds the clients for the registry services the emailer
// depends on: the legal API (filing documents), the pay API (receipts) and
// the auth API (business contacts). Every call goes through BaseClient, which
// adds trace propagation, a circuit breaker, optional retries and error
// mapping.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"entityemailer/internal/types"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy configures retries on 429 and 5xx responses.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// NoRetry performs exactly one attempt. Document and receipt fetches use it:
// a failed attachment is omitted, never retried.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// DefaultRetryPolicy is used for idempotent lookups such as business contacts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// BaseClient wraps an *http.Client with a circuit breaker and retry policy.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration)
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep between retries. Tests pass a no-op.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithBreaker replaces the default circuit breaker, e.g. to share one
// breaker between the clients of a single upstream host.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBreaker builds the default breaker: it opens after more than five
// consecutive failures and lets one request through again after 30 seconds.
//
// Each BaseClient owns its breaker, and clients are built once per process, so
// breaker state carries over between Lambda invocations on a warm container.
// That is intended: a legal or pay API outage trips the breaker once, and
// later records fail fast with ErrCodeUpstreamUnavailable (and are retried
// by SQS) instead of each paying for the full retry schedule. Breakers are
// never shared across upstreams unless WithBreaker is used.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// NewBaseClient creates a BaseClient. breakerName labels the default breaker.
func NewBaseClient(httpClient *http.Client, breakerName string, retryPolicy RetryPolicy, userAgent string, opts ...BaseClientOption) *BaseClient {
	bc := &BaseClient{
		client:      httpClient,
		breaker:     NewBreaker(breakerName),
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// Do executes req. It sets X-B3-TraceId from the context request ID and the
// User-Agent, runs the call through the breaker and retries 429/5xx according
// to the policy (honouring Retry-After).
//
// Any response below 500 other than 429 is returned as-is for the caller to
// interpret; the caller closes the body. Exhausted retries, an open breaker
// and transport errors come back as *types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to buffer request body", err)
		}
	}

	attempts := 1 + c.retryPolicy.MaxRetries
	var (
		lastResp *http.Response
		lastErr  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if lastResp != nil {
			lastResp.Body.Close()
		}
		lastResp = resp

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt < attempts-1 {
			c.sleepFn(c.backoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}
	return nil, mapError(lastResp, lastErr)
}

// backoff honours Retry-After (seconds or HTTP date), otherwise applies
// exponential backoff with jitter clamped to [MinWait, MaxWait].
func (c *BaseClient) backoff(attempt int, resp *http.Response) time.Duration {
	p := c.retryPolicy
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				return min(time.Duration(secs)*time.Second, p.MaxWait)
			}
			if at, err := http.ParseTime(ra); err == nil {
				return max(min(time.Until(at), p.MaxWait), p.MinWait)
			}
		}
	}

	ceiling := math.Min(float64(p.MinWait)*math.Pow(2, float64(attempt)), float64(p.MaxWait))
	floor := float64(p.MinWait)
	if ceiling <= floor {
		return p.MinWait
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor))
}

func mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, "circuit breaker is open", err)
	}
	if resp != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err).
				WithDetails(map[string]any{"status": resp.StatusCode})
		}
		return types.NewAppError(types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode), err).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}

// StatusError reports a response whose status is not the one the operation
// expects (e.g. a document request that is not 200 OK).
type StatusError struct {
	Operation  string
	StatusCode int
	Expected   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d, expected %d", e.Operation, e.StatusCode, e.Expected)
}

// readExpected drains resp and returns its body when the status matches
// expected; otherwise it returns an upstream AppError wrapping a StatusError.
func readExpected(resp *http.Response, operation string, expected int) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode != expected {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &StatusError{Operation: operation, StatusCode: resp.StatusCode, Expected: expected}
		return nil, types.NewAppError(types.ErrCodeUpstreamStatus, se.Error(), se).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, operation+": failed to read body", err)
	}
	return data, nil
}
