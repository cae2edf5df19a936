// README: Caller wraps every external call with rate limiting, timeout, retry, breaker, and fallback.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"atlas/internal/config"
)

// Caller applies the shared call discipline for one adapter: a per-call
// timeout, bounded retries with backoff, a circuit breaker, and a token
// bucket shared process-wide across requests.
type Caller struct {
	source  Name
	timeout time.Duration
	retries int
	backoff time.Duration
	limiter *rate.Limiter
	maxWait time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewCaller(source Name, cfg config.AdapterConfig, log *zap.Logger) *Caller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Caller{
		source:  source,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		backoff: 200 * time.Millisecond,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst),
		maxWait: cfg.MaxRateWait,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: string(source),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		log: log.With(zap.String("adapter", string(source))),
	}
}

// Call runs fn under the caller's discipline. On any terminal failure the
// fallback payload is returned, marked degraded, with the failure classified
// in Error. Raw errors never escape.
func Call[T any](ctx context.Context, c *Caller, fn func(context.Context) (T, error), fallback T) ServiceResult[T] {
	if err := c.reserve(ctx); err != nil {
		c.log.Warn("rate limit exceeded", zap.Error(err))
		return degraded(c.source, fallback, ErrorKindRateLimited)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return degraded(c.source, fallback, classify(ctx.Err()))
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		out, err := c.attempt(ctx, func(cctx context.Context) (any, error) {
			v, err := fn(cctx)
			return v, err
		})
		if err == nil {
			return ServiceResult[T]{Success: true, Data: out.(T), Source: c.source}
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		c.log.Debug("adapter attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	c.log.Warn("adapter call failed, serving fallback", zap.Error(lastErr))
	return degraded(c.source, fallback, classify(lastErr))
}

func (c *Caller) attempt(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.breaker.Execute(func() (any, error) {
		return fn(cctx)
	})
}

// reserve waits for a token up to maxWait, then fails fast.
func (c *Caller) reserve(ctx context.Context) error {
	wctx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()
	return c.limiter.Wait(wctx)
}

func degraded[T any](source Name, fallback T, kind ErrorKind) ServiceResult[T] {
	return ServiceResult[T]{Data: fallback, Degraded: true, Source: source, Error: kind}
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindAdapterTimeout
	}
	return ErrorKindAdapterUnavailable
}
