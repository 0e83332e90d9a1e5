package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolDeduplicatesRoutes(t *testing.T) {
	pool, err := NewPool([]string{
		"http://127.0.0.1:9001",
		"http://127.0.0.1:9002",
		"http://127.0.0.1:9001",
	})
	require.NoError(t, err)
	assert.Len(t, pool.Endpoints(), 2)
}

func TestNewPoolRejectsEmptyList(t *testing.T) {
	_, err := NewPool(nil)
	require.Error(t, err)
}

func TestNextSkipsCoolingEndpoints(t *testing.T) {
	pool, err := NewPool([]string{
		"http://127.0.0.1:9001",
		"http://127.0.0.1:9002",
	})
	require.NoError(t, err)

	cooling := pool.Endpoints()[0]
	cooling.cooldownUntil.Store(time.Now().Add(time.Minute).UnixNano())

	for i := 0; i < 5; i++ {
		assert.NotSame(t, cooling, pool.Next())
	}
}

func TestNextWithEveryEndpointCooling(t *testing.T) {
	pool, err := NewPool([]string{"http://127.0.0.1:9001"})
	require.NoError(t, err)
	pool.Endpoints()[0].cooldownUntil.Store(time.Now().Add(time.Minute).UnixNano())

	// Still hands out an endpoint; Dispatch will fail fast on it.
	assert.NotNil(t, pool.Next())
}

func TestResetEvery(t *testing.T) {
	pool, err := NewPool([]string{"http://127.0.0.1:9001"})
	require.NoError(t, err)

	ep := pool.Endpoints()[0]
	ep.requests.Add(7)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.ResetEvery(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return ep.Requests() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCheckAllFiltersUnreachableRoutes(t *testing.T) {
	// A plain server works as an http proxy for an http target: the
	// client sends the absolute-URI request straight to it.
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	routes := []string{
		good.URL,
		"http://127.0.0.1:1",
		good.URL, // duplicate must not duplicate the output
	}

	working := CheckAll(routes, target.URL)
	assert.Equal(t, []string{good.URL}, working)
}
