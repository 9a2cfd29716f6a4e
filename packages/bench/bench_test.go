package bench

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajeshsegu/resource-go/packages/resource"
)

func jsonHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

func TestRunnerDispatchesEveryRequest(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		jsonHandler(http.StatusOK)(w, req)
	}))
	defer srv.Close()

	runner := NewRunner(&Config{Requests: 25, Concurrency: 5})
	summary, err := runner.Run(context.Background(), func() (*resource.Resource, error) {
		return resource.Get(srv.URL), nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), hits.Load())
	assert.Equal(t, int64(25), summary.Total)
	assert.Equal(t, int64(25), summary.Successes)
	assert.Equal(t, int64(0), summary.Failures)
}

func TestRunnerCountsFailures(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusInternalServerError))
	defer srv.Close()

	runner := NewRunner(&Config{Requests: 10, Concurrency: 2})
	summary, err := runner.Run(context.Background(), func() (*resource.Resource, error) {
		return resource.Get(srv.URL), nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), summary.Total)
	assert.Equal(t, int64(0), summary.Successes)
	assert.Equal(t, int64(10), summary.Failures)
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	runner := NewRunner(&Config{Requests: 0, Concurrency: 1})
	_, err := runner.Run(context.Background(), func() (*resource.Resource, error) {
		return resource.Get("http://example.com"), nil
	})
	assert.Error(t, err)
}

func TestRunnerWaitsForInFlightOnFactoryError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-release:
		case <-req.Context().Done():
		}
		jsonHandler(http.StatusOK)(w, req)
	}))
	defer srv.Close()

	calls := 0
	factory := func() (*resource.Resource, error) {
		calls++
		if calls > 2 {
			return nil, errors.New("bad profile")
		}
		return resource.Get(srv.URL), nil
	}

	runner := NewRunner(&Config{Requests: 10, Concurrency: 4})
	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background(), factory)
		done <- err
	}()

	// Two dispatches are stalled on the server when the factory fails;
	// Run must not return until they resolve.
	select {
	case <-done:
		t.Fatal("Run returned while dispatches were still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build request")
	case <-time.After(5 * time.Second):
		t.Fatal("Run never returned after the in-flight requests resolved")
	}
}

func TestRunnerPacesDispatches(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK))
	defer srv.Close()

	// 10 requests at 100/s should take roughly 90ms of pacing.
	runner := NewRunner(&Config{Requests: 10, Concurrency: 10, Rate: 100})
	start := time.Now()
	summary, err := runner.Run(context.Background(), func() (*resource.Resource, error) {
		return resource.Get(srv.URL), nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), summary.Total)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRunnerStopsOnContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-release:
		case <-req.Context().Done():
		}
		jsonHandler(http.StatusOK)(w, req)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// Concurrency 1 with a stalled server: the first dispatch blocks,
	// cancellation must keep the rest from ever going out.
	runner := NewRunner(&Config{Requests: 100, Concurrency: 1})
	summary, err := runner.Run(ctx, func() (*resource.Resource, error) {
		return resource.Get(srv.URL), nil
	})
	require.NoError(t, err)
	assert.Less(t, summary.Total, int64(100))
}
