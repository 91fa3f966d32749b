package venue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okaybet/crossarb/internal/domain"
)

// TransportConfig tunes the shared venue transport.
type TransportConfig struct {
	Name           string        // venue name, used by the breaker
	Timeout        time.Duration // per-request timeout
	RequestsPerSec float64       // client-side rate limit, 0 disables
	Burst          int
}

// Transport wraps an HTTP client with a client-side rate limiter and a
// circuit breaker, and classifies transport-level failures as
// domain.ErrTransientNetwork. Responses are returned as-is; status-code
// mapping is the caller's job via CheckStatus.
type Transport struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewTransport builds a Transport. A zero RequestsPerSec disables client-side
// throttling. The breaker trips after five consecutive failures and probes
// again after 30 seconds.
func NewTransport(cfg TransportConfig) *Transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Transport{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		breaker: breaker,
	}
}

// Do executes one HTTP request through the limiter and breaker. Timeouts,
// connection failures, and an open breaker all surface as
// domain.ErrTransientNetwork so callers apply one retry policy.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("venue: rate limiter: %w", err)
		}
	}

	res, err := t.breaker.Execute(func() (any, error) {
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		// 5xx counts as a breaker failure but is still handed back to the
		// caller for status mapping.
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("server error: HTTP %d", resp.StatusCode)
		}
		return resp, nil
	})

	if err != nil {
		if resp, ok := res.(*http.Response); ok && resp != nil {
			return resp, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("venue: %w: circuit breaker open: %v", domain.ErrTransientNetwork, err)
		}
		return nil, classifyTransportErr(err)
	}

	return res.(*http.Response), nil
}

// classifyTransportErr maps timeouts and connection errors to the transient
// taxonomy; anything else passes through wrapped.
func classifyTransportErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("venue: %w: timeout: %v", domain.ErrTransientNetwork, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("venue: %w: deadline exceeded: %v", domain.ErrTransientNetwork, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("venue: %w: %v", domain.ErrTransientNetwork, err)
	}
	// http.Client wraps everything in *url.Error; connection refused and DNS
	// failures land here.
	return fmt.Errorf("venue: %w: %v", domain.ErrTransientNetwork, err)
}

// CheckStatus maps a non-2xx status code onto the domain error taxonomy.
func CheckStatus(v domain.Venue, statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	detail := string(body)
	if len(detail) > 512 {
		detail = detail[:512]
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w: %s", v, domain.ErrNotFound, detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", v, domain.ErrAuthFailure, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %s", v, domain.ErrRateLimited, detail)
	default:
		if statusCode >= 500 {
			return fmt.Errorf("%s: %w: HTTP %d: %s", v, domain.ErrTransientNetwork, statusCode, detail)
		}
		return fmt.Errorf("%s: HTTP %d: %s", v, statusCode, detail)
	}
}
