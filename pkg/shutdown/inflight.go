package shutdown

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InFlightTracker counts requests that reached a handler so shutdown can
// wait for them. Once draining starts new work is refused.
type InFlightTracker struct {
	logger     *zap.Logger
	shutdownCh chan struct{}
	name       string
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closeOnce  sync.Once
}

// NewInFlightTracker creates a tracker; name appears in log lines only.
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		shutdownCh: make(chan struct{}),
		logger:     logger,
		name:       name,
	}
}

// Add registers one unit of work. It returns false once draining started.
func (ift *InFlightTracker) Add() bool {
	ift.mu.RLock()
	defer ift.mu.RUnlock()

	select {
	case <-ift.shutdownCh:
		return false
	default:
		ift.wg.Add(1)
		return true
	}
}

// Done releases a unit registered by Add.
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// Shutdown stops accepting work and waits for the outstanding units or ctx.
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.closeOnce.Do(func() {
		// the write lock orders close against concurrent Add calls
		ift.mu.Lock()
		close(ift.shutdownCh)
		ift.mu.Unlock()
	})

	ift.logger.Info("Waiting for in-flight requests to complete",
		zap.String("tracker", ift.name),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight requests completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some requests may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}

// IsShuttingDown reports whether Shutdown has been called.
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// Run executes fn as tracked work. It returns false without calling fn
// when draining already started.
func (ift *InFlightTracker) Run(fn func()) bool {
	if !ift.Add() {
		return false
	}
	defer ift.Done()

	fn()
	return true
}

// GinMiddleware tracks every request and answers 503 while draining.
func (ift *InFlightTracker) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ift.Add() {
			c.Header("Connection", "close")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"detail": "service is shutting down",
				"code":   "SERVICE_UNAVAILABLE",
			})
			return
		}
		defer ift.Done()

		c.Next()
	}
}

// PeriodicWorker runs a function on a fixed interval until stopped.
type PeriodicWorker struct {
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	interval time.Duration
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPeriodicWorker creates a worker; Start must be called to run it.
func NewPeriodicWorker(name string, interval time.Duration, logger *zap.Logger) *PeriodicWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PeriodicWorker{
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		name:     name,
		interval: interval,
	}
}

// Start runs work once immediately and then on every tick.
func (pw *PeriodicWorker) Start(work func(ctx context.Context)) {
	pw.wg.Add(1)

	go func() {
		defer pw.wg.Done()

		pw.logger.Info("Periodic worker started",
			zap.String("worker", pw.name),
			zap.Duration("interval", pw.interval),
		)

		ticker := time.NewTicker(pw.interval)
		defer ticker.Stop()

		work(pw.ctx)

		for {
			select {
			case <-pw.ctx.Done():
				pw.logger.Info("Periodic worker stopped",
					zap.String("worker", pw.name),
				)
				return
			case <-ticker.C:
				work(pw.ctx)
			}
		}
	}()
}

// Shutdown cancels the worker context and waits for the current run to
// return, bounded by ctx.
func (pw *PeriodicWorker) Shutdown(ctx context.Context) error {
	pw.stopOnce.Do(pw.cancel)

	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		pw.logger.Warn("Periodic worker shutdown timeout",
			zap.String("worker", pw.name),
		)
		return ctx.Err()
	}
}
