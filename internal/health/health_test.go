package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradyfit/backend/internal/storage/memory"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker_Ready(t *testing.T) {
	hc := NewHealthChecker(memory.NewStore(), nil)

	rec := httptest.NewRecorder()
	hc.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	hc.LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthChecker_FailingDependency(t *testing.T) {
	hc := NewHealthChecker(memory.NewStore(), nil)
	hc.AddDependency("redis", pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	hc.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	results := hc.CheckHealth()
	assert.Equal(t, "OK", results["database"])
	assert.Contains(t, results["redis"], "connection refused")
	assert.False(t, Healthy(results))
}
