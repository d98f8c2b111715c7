package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/metrics"
)

// apiResponse is a fully read response. Bodies are drained inside each attempt
// so a retried attempt never leaks the connection of the previous one.
type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *apiResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RetryOptions bounds the retry policy wrapped around every request.
type RetryOptions struct {
	MaxRetries int
	MinDelay   time.Duration
	MaxDelay   time.Duration
}

func newRetryPolicy(opts RetryOptions, method, endpoint string) retrypolicy.RetryPolicy[*apiResponse] {
	minDelay, maxDelay := opts.MinDelay, opts.MaxDelay
	if minDelay <= 0 {
		minDelay = time.Millisecond
	}
	if maxDelay <= minDelay {
		maxDelay = minDelay + time.Millisecond
	}

	return retrypolicy.NewBuilder[*apiResponse]().
		HandleIf(func(resp *apiResponse, err error) bool {
			if err != nil {
				return isTransientError(err)
			}
			return resp != nil && isTransientStatus(resp.StatusCode)
		}).
		WithBackoff(minDelay, maxDelay).
		WithMaxRetries(opts.MaxRetries).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*apiResponse]) {
			metrics.HTTPRetriesTotal.WithLabelValues(method, endpoint).Inc()
			logger := config.GetLogger()
			evt := logger.Warn().
				Str("method", method).
				Str("endpoint", endpoint).
				Int("attempt", e.Attempts())
			if err := e.LastError(); err != nil {
				evt = evt.Err(err)
			} else if resp := e.LastResult(); resp != nil {
				evt = evt.Int("status", resp.StatusCode)
			}
			evt.Msg("Request failed, retrying")
		}).
		Build()
}

// do sends one request through the retry policy and returns the final response.
// Non-2xx responses are returned as-is; the caller decides what they mean.
// A request that never reached the server is returned as *apperrors.ConnectionError.
func (c *client) do(ctx context.Context, method, endpoint string, target string, body []byte) (*apiResponse, error) {
	policy := newRetryPolicy(c.retry, method, endpoint)

	resp, err := failsafe.With(policy).WithContext(ctx).Get(func() (*apiResponse, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, metrics.StatusClass(0)).Inc()
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, metrics.StatusClass(httpResp.StatusCode)).Inc()
		return &apiResponse{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isConnectionFailure(err) {
			return nil, &apperrors.ConnectionError{Op: method, URL: target, Err: err}
		}
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}
