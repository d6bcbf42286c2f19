package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// retryPolicy is the backoff shared by both runtimes.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newRetryPolicy(attempts int, base, maxDelay, defBase, defMax time.Duration) retryPolicy {
	if attempts <= 0 {
		attempts = 1
	}
	if base <= 0 {
		base = defBase
	}
	if maxDelay <= 0 {
		maxDelay = defMax
	}
	return retryPolicy{attempts: attempts, baseDelay: base, maxDelay: maxDelay}
}

// delay returns the jittered wait before the given retry (1-based).
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << (attempt - 1)
	d = withJitter(d)
	if p.maxDelay > 0 && d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// readAPIError drains a non-2xx body into an APIError. Both the
// {"error":{"message","code"}} and {"error":"..."} shapes are understood.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: extractRequestID(resp)}
	if !gjson.ValidBytes(body) {
		apiErr.Message = string(body)
		return apiErr
	}
	doc := gjson.ParseBytes(body)
	if e := doc.Get("error"); e.IsObject() {
		apiErr.Message = e.Get("message").String()
		apiErr.Code = e.Get("code").String()
	} else if e.Type == gjson.String {
		apiErr.Message = e.String()
	}
	if apiErr.Message == "" {
		apiErr.Message = doc.Get("message").String()
	}
	if apiErr.Code == "" {
		apiErr.Code = doc.Get("code").String()
	}
	return apiErr
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfter reads a Retry-After header given as seconds or an HTTP date.
func parseRetryAfter(v string) (time.Duration, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := parseRetryAfter(v); err == nil {
			return d
		}
	}
	return 0
}

func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter applies +/- 20% jitter.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
	if out <= 0 {
		return d
	}
	return out
}
