package shutdown

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManager_ShutdownRunsInReverseOrder(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	var order []string
	m.RegisterNoErr("database", func() { order = append(order, "database") })
	m.RegisterNoErr("tracker", func() { order = append(order, "tracker") })
	m.RegisterHTTPServer("http", &fakeServer{onShutdown: func() { order = append(order, "http") }})

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"http", "tracker", "database"}, order)
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	boom := errors.New("boom")
	m.RegisterCloser("pool", closerFunc(func() error { return boom }))
	m.RegisterNoErr("ok", func() {})

	err := m.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "pool")
}

func TestManager_ShutdownRunsOnce(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	var calls int32
	m.RegisterNoErr("counter", func() { atomic.AddInt32(&calls, 1) })

	require.NoError(t, m.Shutdown())
	require.NoError(t, m.Shutdown())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestManager_WaitForShutdownOnContext(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	var ran atomic.Bool
	m.RegisterNoErr("component", func() { ran.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.WaitForShutdown(ctx))
	assert.True(t, ran.Load())
}

func TestInFlightTracker_WaitsForWork(t *testing.T) {
	tracker := NewInFlightTracker("test", zaptest.NewLogger(t))

	require.True(t, tracker.Add())

	released := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(released)
		tracker.Done()
	}()

	require.NoError(t, tracker.Shutdown(context.Background()))
	select {
	case <-released:
	default:
		t.Fatal("shutdown returned before work completed")
	}

	assert.True(t, tracker.IsShuttingDown())
	assert.False(t, tracker.Add())
	assert.False(t, tracker.Run(func() { t.Fatal("must not run") }))
}

func TestInFlightTracker_ShutdownTimeout(t *testing.T) {
	tracker := NewInFlightTracker("test", zaptest.NewLogger(t))
	require.True(t, tracker.Add())
	defer tracker.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tracker.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInFlightTracker_GinMiddlewareRejectsWhileDraining(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracker := NewInFlightTracker("http", zaptest.NewLogger(t))

	router := gin.New()
	router.Use(tracker.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, tracker.Shutdown(context.Background()))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"detail":"service is shutting down","code":"SERVICE_UNAVAILABLE"}`, w.Body.String())
}

func TestPeriodicWorker_RunsUntilShutdown(t *testing.T) {
	worker := NewPeriodicWorker("ticker", 5*time.Millisecond, zaptest.NewLogger(t))

	var runs int32
	worker.Start(func(ctx context.Context) { atomic.AddInt32(&runs, 1) })

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, worker.Shutdown(context.Background()))
	after := atomic.LoadInt32(&runs)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}

type fakeServer struct {
	onShutdown func()
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.onShutdown()
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
