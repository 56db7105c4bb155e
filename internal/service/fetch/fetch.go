package fetch

import (
	"context"
	"math"
	"math/rand"
	"time"

	"FinSight/internal/domain/repository"
	applogger "FinSight/pkg/logger"
)

// Emptier is implemented by fetch result containers. An empty result is
// treated as "provider had no data", which is not an error and is never
// cached.
type Emptier interface {
	Empty() bool
}

// Config bounds the retry and pacing behavior of a Wrapper.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	JitterMin  time.Duration
	JitterMax  time.Duration
}

// Wrapper runs upstream calls with caching, pre-call jitter, rate-limit
// cooldown and exponential retry.
//
// Per attempt: sleep a uniform jitter, run the call, classify the failure.
// Rate-limit failures additionally sleep a 3-8s cooldown before the retry
// schedule applies. The retry delay doubles each attempt from BaseDelay;
// rate-limit retries add up to a second of noise, all other failures retry
// at half the delay. Not-found failures return immediately without retrying.
type Wrapper struct {
	store   repository.Store
	metrics repository.Metrics
	log     *applogger.Logger
	cfg     Config

	sleep     func(ctx context.Context, d time.Duration) error
	randFloat func() float64
}

// NewWrapper creates a fetch wrapper over the given cache store.
func NewWrapper(store repository.Store, metrics repository.Metrics, log *applogger.Logger, cfg Config) *Wrapper {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.JitterMin <= 0 {
		cfg.JitterMin = 200 * time.Millisecond
	}
	if cfg.JitterMax < cfg.JitterMin {
		cfg.JitterMax = 800 * time.Millisecond
	}
	return &Wrapper{
		store:     store,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
		sleep:     sleepCtx,
		randFloat: rand.Float64,
	}
}

// Do runs one cached upstream operation for a symbol.
func Do[T Emptier](ctx context.Context, w *Wrapper, symbol, operation string, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if cached, ok := w.store.Get(ctx, symbol, operation); ok {
		if v, ok := cached.(T); ok {
			w.metrics.RecordCache("hit")
			return v, nil
		}
	}
	w.metrics.RecordCache("miss")

	var lastErr error
	for attempt := 0; attempt < w.cfg.MaxRetries; attempt++ {
		if err := w.sleep(ctx, w.jitter()); err != nil {
			return zero, err
		}

		start := time.Now()
		result, err := call(ctx)
		w.metrics.RecordLatency(operation, time.Since(start).Seconds())

		if err == nil {
			if result.Empty() {
				w.metrics.RecordUpstreamCall(operation, "empty")
				return result, nil
			}
			w.metrics.RecordUpstreamCall(operation, "success")
			w.store.Put(ctx, symbol, operation, result)
			return result, nil
		}

		kind := KindOf(err)
		w.metrics.RecordUpstreamCall(operation, kind.String())
		lastErr = err

		// An unknown symbol will not resolve on retry.
		if kind == KindNotFound {
			w.log.Warn("upstream has no data",
				applogger.String("symbol", symbol),
				applogger.String("operation", operation),
			)
			return zero, err
		}

		if kind == KindRateLimited {
			cooldown := time.Duration((3 + w.randFloat()*5) * float64(time.Second))
			w.log.Warn("upstream rate limited",
				applogger.String("symbol", symbol),
				applogger.String("operation", operation),
				applogger.Duration("cooldown_ms", cooldown),
			)
			if err := w.sleep(ctx, cooldown); err != nil {
				return zero, err
			}
		}

		if attempt == w.cfg.MaxRetries-1 {
			break
		}

		delay := w.retryDelay(attempt, kind)
		w.log.Warn("upstream call failed, retrying",
			applogger.String("symbol", symbol),
			applogger.String("operation", operation),
			applogger.Int("attempt", attempt+1),
			applogger.Duration("delay_ms", delay),
			applogger.Error(err),
		)
		if err := w.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	w.log.Error("upstream call exhausted retries",
		applogger.String("symbol", symbol),
		applogger.String("operation", operation),
		applogger.Error(lastErr),
	)
	return zero, lastErr
}

func (w *Wrapper) jitter() time.Duration {
	span := w.cfg.JitterMax - w.cfg.JitterMin
	return w.cfg.JitterMin + time.Duration(w.randFloat()*float64(span))
}

func (w *Wrapper) retryDelay(attempt int, kind Kind) time.Duration {
	base := float64(w.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if kind == KindRateLimited {
		return time.Duration(base + w.randFloat()*float64(time.Second))
	}
	return time.Duration(base * 0.5)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
