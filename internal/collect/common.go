package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultHTTPConfig returns the retry policy shared by all collectors.
func DefaultHTTPConfig(client *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff and a circuit breaker. Client errors other than 429 are not retried.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Backoff.InitialInterval
	if cfg.Backoff.MaxInterval > 0 {
		bo.MaxInterval = cfg.Backoff.MaxInterval
	}

	return backoff.Retry(ctx, func() (*http.Response, error) {
		req, err := buildRequest(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			// Handle rate limiting and server errors explicitly.
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, errServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				drain(resp)
				return nil, backoff.Permanent(fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode))
			}
			return resp, nil
		})
		if err != nil {
			// If circuit is open, propagate immediately.
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			}
			return nil, err
		}

		resp, ok := result.(*http.Response)
		if !ok {
			return nil, backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		return resp, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(cfg.Backoff.MaxRetries+1))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
