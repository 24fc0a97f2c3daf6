package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const jitterPercent = 10

// Attempt outcomes reported to the observer.
const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
	OutcomeNetwork  = "network_error"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// AttemptObserver is told the outcome of every gateway attempt.
type AttemptObserver func(outcome string)

// ClientOptions configures the resilient gateway client.
type ClientOptions struct {
	Timeout       time.Duration
	MaxRetries    int
	BaseBackoff   time.Duration
	RatePerSecond float64
	RateBurst     int
	Logger        *logger.Logger
	Observer      AttemptObserver
}

// OptionsFromConfig maps payment settings onto client options.
func OptionsFromConfig(cfg config.PaymentsConfig, logg *logger.Logger) ClientOptions {
	return ClientOptions{
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
		BaseBackoff:   cfg.BaseBackoff,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
		Logger:        logg,
	}
}

// Client wraps a Gateway with per-attempt timeouts, bounded retries of
// transient failures and a client-side rate limit. Every attempt reuses the
// charge's idempotency key.
type Client struct {
	gateway  Gateway
	opts     ClientOptions
	limiter  *rate.Limiter
	observer AttemptObserver
}

// NewClient builds a resilient client around gateway.
func NewClient(gateway Gateway, opts ClientOptions) (*Client, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("payment timeout must be positive")
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 100 * time.Millisecond
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	observer := opts.Observer
	if observer == nil {
		observer = func(string) {}
	}

	return &Client{
		gateway:  gateway,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, burst),
		observer: observer,
	}, nil
}

// Submit sends the charge, retrying ErrNetwork and ErrGatewayTimeout with
// exponential backoff. After the last retry the transient error is returned.
func (c *Client) Submit(ctx context.Context, charge Charge) (Result, error) {
	if charge.AmountCents <= 0 {
		return Result{}, fmt.Errorf("charge amount must be positive")
	}
	if strings.TrimSpace(charge.IdempotencyKey) == "" {
		return Result{}, fmt.Errorf("idempotency key required")
	}

	backoff := retry.WithMaxRetries(uint64(c.opts.MaxRetries),
		retry.WithJitterPercent(jitterPercent, retry.NewExponential(c.opts.BaseBackoff)))

	var (
		result  Result
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		res, err := c.attempt(ctx, charge)
		if err != nil {
			c.observer(outcomeFor(err))
			if IsRetryable(err) {
				c.logRetry(ctx, attempt, err)
				return retry.RetryableError(err)
			}
			return err
		}
		if res.Approved {
			c.observer(OutcomeApproved)
		} else {
			c.observer(OutcomeDeclined)
		}
		result = res
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (c *Client) attempt(ctx context.Context, charge Charge) (Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	res, err := c.gateway.Submit(attemptCtx, charge)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !IsRetryable(err) {
		return Result{}, ErrGatewayTimeout
	}
	return res, err
}

func (c *Client) logRetry(ctx context.Context, attempt int, err error) {
	if c.opts.Logger == nil {
		return
	}
	ctx = c.opts.Logger.WithFields(ctx, map[string]any{
		"attempt":     attempt,
		"max_retries": c.opts.MaxRetries,
		"error":       err.Error(),
	})
	c.opts.Logger.Warn(ctx, "payment attempt failed")
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrGatewayTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrNetwork):
		return OutcomeNetwork
	}
	return OutcomeError
}
