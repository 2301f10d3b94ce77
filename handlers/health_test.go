package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/schema"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterDeps{})
	w, _ := s.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())
}

func TestReady(t *testing.T) {
	var mongoErr error
	mgr := &fakeSchema{verify: report(schema.ActionUnchanged)}
	s := newTestServer(t, RouterDeps{Checks: []Check{
		{Name: "mongodb", Fn: func(context.Context) error { return mongoErr }},
		SchemaCheck(mgr),
	}})

	w, resp := s.do(t, call{method: http.MethodGet, path: "/ready"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ready", resp.Data.(map[string]interface{})["status"])

	mgr.verify = report(schema.ActionDrifted)
	w, resp = s.do(t, call{method: http.MethodGet, path: "/ready"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	deps := resp.Data.(map[string]interface{})["deps"].(map[string]interface{})
	require.Equal(t, true, deps["mongodb"])
	require.Equal(t, false, deps["schema"])

	mgr.verify = report(schema.ActionUnchanged)
	mongoErr = errors.New("server selection timeout")
	w, _ = s.do(t, call{method: http.MethodGet, path: "/ready"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, RouterDeps{})
	s.issue(t)
	w, _ := s.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRateLimitWired(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1}
	s := newTestServer(t, RouterDeps{Config: cfg})
	w, _ := s.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}
