// Package eliminate is the client boundary to the external algebra
// engine that computes elimination ideals. The core never implements
// elimination itself; it packages a polynomial system, posts it, and
// maps the engine's outcome onto the locus failure taxonomy: TIMEOUT,
// UNREACHABLE, or DEGENERATE_SYSTEM.
package eliminate

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/httputil"
	"github.com/loci-dev/loci/pkg/observability"
)

// DefaultTimeout bounds one elimination round trip including retries.
const DefaultTimeout = 30 * time.Second

// Result is a successful elimination: one or more implicit polynomials
// in the wire grammar, plus the engine's reported cost.
type Result struct {
	RequestID   string
	Polynomials []string
	Elapsed     time.Duration
}

// Client posts constraint systems to an elimination engine over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *log.Logger

	// retry policy for transient failures
	attempts int
	delay    time.Duration
}

// NewClient creates a client for the engine at baseURL. A zero timeout
// uses DefaultTimeout; a nil logger uses the default logger.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
}

// Eliminate posts the system and returns the implicit polynomials in the
// kept variables. Transient failures (network errors, 5xx) are retried
// with backoff before surfacing as UNREACHABLE; engine-reported
// degeneracy and deadline expiry are returned without retry.
func (c *Client) Eliminate(ctx context.Context, polynomials, eliminateVars, keepVars []string) (*Result, error) {
	req := Request{
		ID:          uuid.NewString(),
		Polynomials: polynomials,
		Eliminate:   eliminateVars,
		Keep:        keepVars,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode elimination request")
	}

	endpoint := c.baseURL + "/eliminate"
	c.logger.Debug("posting elimination request",
		"id", req.ID,
		"polynomials", len(req.Polynomials),
		"eliminate", len(req.Eliminate))

	var resp Response
	start := time.Now()
	err = httputil.Retry(ctx, c.attempts, c.delay, func() error {
		return c.post(ctx, endpoint, body, &resp)
	})
	observability.HTTP().OnResponse(ctx, http.MethodPost, c.baseURL, "/eliminate", statusOf(err), time.Since(start))
	if err != nil {
		return nil, c.mapError(ctx, err, req.ID)
	}

	if len(resp.Polynomials) == 0 {
		return nil, errors.New(errors.ErrCodeDegenerateSystem,
			"engine returned an empty elimination ideal for request %s", req.ID)
	}
	c.logger.Debug("elimination complete",
		"id", req.ID,
		"polynomials", len(resp.Polynomials),
		"engine_ms", resp.ElapsedMS)
	return &Result{
		RequestID:   req.ID,
		Polynomials: resp.Polynomials,
		Elapsed:     time.Duration(resp.ElapsedMS * float64(time.Millisecond)),
	}, nil
}

// post performs one HTTP round trip. Network failures and 5xx statuses
// come back wrapped as retryable.
func (c *Client) post(ctx context.Context, endpoint string, body []byte, out *Response) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	observability.HTTP().OnRequest(ctx, http.MethodPost, c.baseURL, "/eliminate")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			// Retrying after the deadline cannot succeed.
			return err
		}
		return &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("engine status %d", resp.StatusCode)}
	default:
		var engineErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&engineErr); err != nil {
			return fmt.Errorf("engine status %d", resp.StatusCode)
		}
		return &engineError{resp: engineErr}
	}
}

// engineError carries a typed failure payload through the retry loop.
type engineError struct{ resp errorResponse }

func (e *engineError) Error() string {
	return fmt.Sprintf("engine error %s: %s", e.resp.Code, e.resp.Message)
}

// mapError translates a transport or engine failure into the locus
// failure taxonomy.
func (c *Client) mapError(ctx context.Context, err error, requestID string) error {
	var ee *engineError
	if stderrors.As(err, &ee) {
		switch ee.resp.Code {
		case wireDegenerateSystem:
			return errors.Wrap(errors.ErrCodeDegenerateSystem, err, "request %s", requestID)
		case wireTimeout:
			return errors.Wrap(errors.ErrCodeTimeout, err, "request %s", requestID)
		default:
			return errors.Wrap(errors.ErrCodeInternal, err, "request %s", requestID)
		}
	}
	if isTimeout(err) || ctx.Err() != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, c.baseURL, "/eliminate", err)
		return errors.Wrap(errors.ErrCodeTimeout, err, "request %s", requestID)
	}
	observability.HTTP().OnError(ctx, http.MethodPost, c.baseURL, "/eliminate", err)
	return errors.Wrap(errors.ErrCodeUnreachable, err, "request %s to %s", requestID, c.baseURL)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return stderrors.As(err, &ue) && ue.Timeout()
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return 0
}
