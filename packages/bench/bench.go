// Package bench drives repeated dispatches of one request shape and
// aggregates latency and outcome statistics.
package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rajeshsegu/resource-go/packages/dispatch"
	"github.com/rajeshsegu/resource-go/packages/resource"
)

// Config holds the load shape of a run.
type Config struct {
	Requests    int     // total dispatches
	Concurrency int     // max in-flight dispatches
	Rate        float64 // dispatches per second, 0 means unpaced
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Requests:    100,
		Concurrency: 10,
	}
}

// Validate checks the config is runnable.
func (c *Config) Validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	return nil
}

// Factory produces one configured, un-sent resource per call. The
// runner replaces any handler registered on the produced resource and
// pins its completion loop.
type Factory func() (*resource.Resource, error)

// Runner executes a run.
type Runner struct {
	config  *Config
	limiter *rate.Limiter
	sem     chan struct{}
	metrics *Metrics
}

// NewRunner creates a runner for the given config.
func NewRunner(config *Config) *Runner {
	r := &Runner{
		config:  config,
		metrics: NewMetrics(),
	}
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	r.sem = make(chan struct{}, concurrency)
	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	return r
}

// Run dispatches config.Requests resources and blocks until every
// outcome is in or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, factory Factory) (*Summary, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	// One private completion loop for the whole run keeps handler
	// delivery off the benchmark's account of network latency.
	loop := dispatch.NewLoop()
	defer loop.Stop()

	r.metrics.Start()

	// A factory error stops dispatching, but in-flight requests are
	// still waited for so their handlers are not dropped on the floor
	// when the loop shuts down.
	var factoryErr error

	var wg sync.WaitGroup
	for i := 0; i < r.config.Requests; i++ {
		if err := r.wait(ctx); err != nil {
			break
		}
		if err := r.acquire(ctx); err != nil {
			break
		}

		res, err := factory()
		if err != nil {
			r.release()
			factoryErr = fmt.Errorf("build request: %w", err)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.release()

			done := make(chan bool, 1)
			start := time.Now()
			res.Response(func(success bool, _ map[string]any) {
				done <- success
			}).CompleteOn(loop).Send()

			select {
			case success := <-done:
				r.metrics.Record(time.Since(start), success)
			case <-ctx.Done():
				res.Cancel()
			}
		}()
	}

	wg.Wait()
	r.metrics.Stop()
	if factoryErr != nil {
		return nil, factoryErr
	}
	return r.metrics.Summary(), nil
}

// wait blocks for the rate limiter, if pacing is configured.
func (r *Runner) wait(ctx context.Context) error {
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return nil
}

// acquire takes a concurrency slot.
func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}
