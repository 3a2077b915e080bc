package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sentinel/internal/application"
	"github.com/turtacn/sentinel/internal/config"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/internal/infrastructure/monitoring"
	"github.com/turtacn/sentinel/internal/infrastructure/persistence/memory"
	"github.com/turtacn/sentinel/internal/infrastructure/ratelimit"
	sentinelhttp "github.com/turtacn/sentinel/internal/interfaces/http"
	"github.com/turtacn/sentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/logger"
)

const testAPIKey = "s3cret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	handler   http.Handler
	throttler *ratelimit.ClientThrottler
}

func newTestServer(t *testing.T, maxProfiles int) *testServer {
	t.Helper()
	log := logger.NewNoopLogger()

	matcher, err := service.NewPatternMatcher(nil)
	require.NoError(t, err)
	detector, err := application.NewAnomalyDetector(
		application.DetectorConfig{MaxProfiles: maxProfiles, StalenessWindow: time.Hour},
		memory.NewProfileStore(constants.DefaultProfileShards),
		matcher, service.NewScoringEngine(), nil, nil, nil, log,
	)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	throttler := ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{RPS: 100, Burst: 2, IdleTTL: time.Minute})

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "test", AllowedOrigins: []string{"*"}},
		Auth:   config.AuthConfig{APIKey: testAPIKey},
	}
	router := sentinelhttp.NewRouter(cfg, log, nil, metrics,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		handlers.NewHealthHandler(detector),
		handlers.NewDetectionHandler(detector, throttler, monitoring.NewMetricsAdapter(metrics), log),
	)
	return &testServer{handler: router.Handler(), throttler: throttler}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAPIKey, testAPIKey)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func detectBody(tenant, client string, indicators map[string]float64) map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":  tenant,
		"client_id":  client,
		"indicators": indicators,
		"confidence": 0.9,
	}
}

func TestDetect_ScoresEvent(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(t, http.MethodPost, "/api/v1/detect",
		detectBody("tenant-a", "client-1", map[string]float64{"failure_rate": 0.5}))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var result struct {
		Score            float64  `json:"score"`
		Level            string   `json:"level"`
		DetectedPatterns []string `json:"detected_patterns"`
		Recommendation   string   `json:"recommendation"`
		RateLimited      bool     `json:"rate_limited"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.InDelta(t, 0.9, result.Score, 1e-9)
	assert.Equal(t, "Critical", result.Level)
	assert.Equal(t, []string{"RapidFailures"}, result.DetectedPatterns)
	assert.Equal(t, "ISOLATE_SESSION", result.Recommendation)
	assert.True(t, result.RateLimited, "critical clients lose their request budget")
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))
}

func TestDetect_SafeClientNotRateLimited(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "client-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Level       string `json:"level"`
		RateLimited bool   `json:"rate_limited"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "Safe", result.Level)
	assert.False(t, result.RateLimited)
}

func TestDetect_ValidationErrors(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(t, http.MethodPost, "/api/v1/detect", map[string]interface{}{
		"client_id":  "client-1",
		"confidence": 1.5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_request", env.Error.Code)
	assert.Contains(t, env.Error.Details, "tenant_id")
	assert.Contains(t, env.Error.Details, "confidence")
}

func TestDetect_MalformedJSON(t *testing.T) {
	s := newTestServer(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader("{not json"))
	req.Header.Set(constants.HeaderAPIKey, testAPIKey)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetect_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, 100)

	big := `{"tenant_id":"t","client_id":"c","metadata":{"blob":"` + strings.Repeat("x", constants.MaxRequestBodyBytes) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader(big))
	req.Header.Set(constants.HeaderAPIKey, testAPIKey)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, 100)

	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/tenant-a/profiles", nil)
		if key != "" {
			req.Header.Set(constants.HeaderAPIKey, key)
		}
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "key %q", key)
	}

	// health stays open
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer(t, 100)

	w, _ := s.do(t, http.MethodGet, "/api/v1/tenants/tenant-a/profiles/client-1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "client-1", nil))
	s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-b", "client-1", nil))

	w, env := s.do(t, http.MethodGet, "/api/v1/tenants/tenant-a/profiles/client-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		TenantID      string `json:"tenant_id"`
		TotalEvents   uint64 `json:"total_events"`
		IsCompromised bool   `json:"is_compromised"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "tenant-a", profile.TenantID)
	assert.Equal(t, uint64(1), profile.TotalEvents)
	assert.False(t, profile.IsCompromised)

	w, env = s.do(t, http.MethodGet, "/api/v1/tenants/tenant-a/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		TenantID string `json:"tenant_id"`
		Count    int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, "tenant-a", list.TenantID)
	assert.Equal(t, 1, list.Count)

	w, env = s.do(t, http.MethodPost, "/api/v1/tenants/tenant-a/profiles/client-1/compromise", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.True(t, profile.IsCompromised)

	w, env = s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "client-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Recommendation string `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "BLOCK_PERMANENTLY", result.Recommendation)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/tenants/tenant-a/profiles/client-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/tenants/tenant-a/profiles/client-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/tenants/tenant-a/profiles/client-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the other tenant's client is untouched
	w, _ = s.do(t, http.MethodGet, "/api/v1/tenants/tenant-b/profiles/client-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 1)

	w, env := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status      string `json:"status"`
		MaxProfiles uint64 `json:"max_profiles"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "operational", health.Status)
	assert.Equal(t, uint64(1), health.MaxProfiles)

	w, _ = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "client-1", nil))

	w, env = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestReadiness_FullStoreOfKnownClients(t *testing.T) {
	s := newTestServer(t, 3)

	for _, c := range []string{"c0", "c1", "c2"} {
		s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", c, nil))
	}
	for i := 0; i < 20; i++ {
		s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "c0", nil))
	}

	w, env := s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status         string `json:"status"`
		ActiveProfiles uint64 `json:"active_profiles"`
		AtCapacity     bool   `json:"at_capacity"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "operational", health.Status)
	assert.Equal(t, uint64(3), health.ActiveProfiles)
	assert.True(t, health.AtCapacity)

	// a new key still gets in after eviction
	w, _ = s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "c3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSignatures(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(t, http.MethodGet, "/api/v1/signatures", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sigs []struct {
		ID           string `json:"id"`
		Pattern      string `json:"pattern"`
		DefaultLevel string `json:"default_level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sigs))
	require.Len(t, sigs, 8)
	assert.Equal(t, "rapid_failures", sigs[0].ID)
	assert.Equal(t, "RapidFailures", sigs[0].Pattern)
	assert.Equal(t, "Medium", sigs[0].DefaultLevel)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	s.do(t, http.MethodPost, "/api/v1/detect", detectBody("tenant-a", "client-1", map[string]float64{"payload_injection": 1}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `sentinel_events_analyzed_total{level="Critical"} 1`)
	assert.Contains(t, body, `sentinel_patterns_detected_total{pattern="PayloadInjection"} 1`)
	assert.Contains(t, body, "sentinel_http_requests_total")
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, 100)
	w, env := s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}
