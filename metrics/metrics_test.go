package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	var method, path string
	var body []byte
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	p, err := NewPusher(gateway.URL, "nf_nf_core_bactmap")
	require.NoError(t, err)
	require.NoError(t, p.Push(context.Background(), "run-1", 137, 90*time.Second))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/nf_nf_core_bactmap/execution/run-1", path)
	assert.Contains(t, string(body), "bactmap_run_exit_code")

	assert.Equal(t, float64(137), testutil.ToFloat64(p.exitCode))
	assert.Equal(t, float64(0), testutil.ToFloat64(p.success))
	assert.Equal(t, float64(90), testutil.ToFloat64(p.duration))

	require.NoError(t, p.Push(context.Background(), "run-1", 0, time.Second))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.success))
}

func TestPushFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer gateway.Close()

	p, err := NewPusher(gateway.URL, "nf_nf_core_bactmap")
	require.NoError(t, err)
	assert.Error(t, p.Push(context.Background(), "run-1", 0, time.Second))
}

func TestNewPusherErrors(t *testing.T) {
	_, err := NewPusher("", "job")
	assert.Error(t, err)
	_, err = NewPusher("http://gateway", "")
	assert.Error(t, err)
}
