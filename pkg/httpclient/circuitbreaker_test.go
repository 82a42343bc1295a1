package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeBreaker wraps a single-attempt client with a breaker that trips after
// two of three requests fail.
func storeBreaker(name string, openFor time.Duration) *CircuitBreakerClient {
	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 4})
	return NewCircuitBreakerClient(client, CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      openFor,
		FailureRatio: 0.5,
		MinRequests:  3,
	}, testLogger())
}

// medusaStub answers /store/products with the status held in code.
func medusaStub(t *testing.T, code *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(code.Load()))
		_, _ = w.Write([]byte(`{"products":[],"count":0}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, breakerState.WithLabelValues(name).Write(&m))
	return m.GetGauge().GetValue()
}

func rejectedValue(t *testing.T, name string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, breakerRejected.WithLabelValues(name).Write(&m))
	return m.GetCounter().GetValue()
}

func TestCircuitBreaker_PassesThroughNonServerErrors(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var code, hits atomic.Int32
			code.Store(int32(status))
			srv := medusaStub(t, &code, &hits)
			cb := storeBreaker("medusa-pass-"+http.StatusText(status), time.Second)

			for i := 0; i < 5; i++ {
				resp, err := cb.Get(context.Background(), srv.URL+"/store/products", nil)
				require.NoError(t, err)
				assert.Equal(t, status, resp.StatusCode)
				resp.Body.Close()
			}
			assert.Equal(t, gobreaker.StateClosed, cb.State())
		})
	}
}

func TestCircuitBreaker_ServerErrorIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`medusa unavailable`))
	}))
	t.Cleanup(srv.Close)

	_, err := storeBreaker("medusa-status", time.Second).Get(context.Background(), srv.URL, nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "medusa unavailable", string(statusErr.Body))
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	const name = "medusa-lifecycle"
	var code, hits atomic.Int32
	code.Store(http.StatusServiceUnavailable)
	srv := medusaStub(t, &code, &hits)
	cb := storeBreaker(name, 100*time.Millisecond)
	assert.Zero(t, gaugeValue(t, name))

	for i := 0; i < 3; i++ {
		_, err := cb.Get(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, float64(2), gaugeValue(t, name))

	seen := hits.Load()
	_, err := cb.Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, seen, hits.Load(), "open breaker must not reach the upstream")
	assert.Equal(t, float64(1), rejectedValue(t, name))

	time.Sleep(150 * time.Millisecond)
	code.Store(http.StatusOK)

	resp, err := cb.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Zero(t, gaugeValue(t, name))
}

func TestCircuitBreaker_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pk_storefront", r.Header.Get("x-publishable-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/store/products", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("x-publishable-api-key", "pk_storefront")

	resp, err := storeBreaker("medusa-do", time.Second).Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := storeBreaker("medusa-ctx", time.Second).Get(ctx, srv.URL, nil)
	require.Error(t, err)
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	assert.Equal(t, CircuitBreakerConfig{
		Name:         "medusa-store",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}, DefaultCircuitBreakerConfig("medusa-store"))
}
