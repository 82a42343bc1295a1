package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRunRefreshLoop_Ticks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	refresh := func(context.Context) (catalog.RefreshResult, error) {
		if calls.Add(1)%2 == 0 {
			return catalog.RefreshResult{}, errors.New("upstream down")
		}
		return catalog.RefreshResult{Generation: uint64(calls.Load())}, nil
	}

	done := make(chan struct{})
	go func() {
		runRefreshLoop(ctx, 5*time.Millisecond, refresh, testLogger())
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond,
		"keeps refreshing after a failure")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}

func TestRunRefreshLoop_Disabled(t *testing.T) {
	var calls atomic.Int32
	refresh := func(context.Context) (catalog.RefreshResult, error) {
		calls.Add(1)
		return catalog.RefreshResult{}, nil
	}

	done := make(chan struct{})
	go func() {
		runRefreshLoop(context.Background(), 0, refresh, testLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled loop should return immediately")
	}
	assert.Zero(t, calls.Load())
}
