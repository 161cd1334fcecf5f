package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthChecker_Check(t *testing.T) {
	healthy := NewHealthChecker(fakePinger{}).Check(context.Background())
	assert.True(t, healthy.Healthy())
	assert.Equal(t, "healthy", healthy.Checks["database"])

	down := NewHealthChecker(fakePinger{err: errors.New("refused")}).Check(context.Background())
	assert.False(t, down.Healthy())
	assert.Contains(t, down.Checks["database"], "refused")

	none := NewHealthChecker(nil).Check(context.Background())
	assert.True(t, none.Healthy())
	assert.Equal(t, "not configured", none.Checks["database"])
}

func TestMetricsServer_Routes(t *testing.T) {
	srv := NewMetricsServer(":0", NewHealthChecker(fakePinger{err: errors.New("down")}))

	tests := []struct {
		path string
		code int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
