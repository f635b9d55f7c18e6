package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relief-match/internal/config"
	"github.com/sells-group/relief-match/internal/recommend"
	"github.com/sells-group/relief-match/pkg/everyorg"
	"github.com/sells-group/relief-match/pkg/everyorg/mocks"
)

var servePool = []everyorg.Nonprofit{
	{Slug: "akut", Name: "AKUT Search and Rescue Association", Description: "Volunteer search and rescue teams responding to earthquakes across Turkey.", Location: "Istanbul, Turkey", WebsiteURL: "https://akut.org.tr", Tags: []string{"disasters"}},
	{Slug: "hellenic-rescue", Name: "Hellenic Rescue Team", Description: "Emergency responders providing shelter and medical care.", Location: "Athens, Greece", WebsiteURL: "https://hrt.gr", Tags: []string{"disasters"}},
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Directory.Key = "pk_test"
	c.Directory.TimeoutSecs = 5
	c.Directory.SearchTake = 50
	c.Directory.BrowseTake = 50
	c.Directory.RatePerSecond = 1000
	c.Directory.Burst = 1000
	c.Retry.MaxAttempts = 1
	c.Circuit.FailureThreshold = 5
	c.Circuit.ResetTimeoutSecs = 30
	c.Cache.ResultTTLMins = 60
	c.Cache.ListTTLHours = 6
	c.Cache.DetailTTLHours = 24
	c.Cache.ResultSize = 10
	c.Cache.DirectorySize = 100
	c.Cache.SignalsSize = 100
	c.Pipeline.TopN = 10
	c.Pipeline.PoolCap = 200
	c.Pipeline.GenerateConcurrency = 4
	c.Pipeline.EnrichConcurrency = 2
	c.Pipeline.LookupConcurrency = 2
	c.Pipeline.LookupTimeoutSecs = 5
	c.Pipeline.DiversityCap = 2
	c.Pricing.Directory.PerSearch = 0.001
	c.Pricing.Directory.PerBrowse = 0.001
	c.Pricing.Directory.PerDetail = 0.0005
	c.Server.Port = 8080
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.ShutdownTimeout = 5
	return c
}

func newMockDirectory(t *testing.T) *mocks.MockClient {
	client := mocks.NewMockClient(t)
	client.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(servePool, nil).Maybe()
	client.On("Browse", mock.Anything, mock.Anything, mock.Anything).Return(servePool, nil).Maybe()
	client.On("GetDetails", mock.Anything, mock.Anything).Return(&everyorg.Details{
		Nonprofit: everyorg.DetailNonprofit{
			Name:            "AKUT Search and Rescue Association",
			PrimarySlug:     "akut",
			LocationAddress: "Istanbul, Turkey",
			IsDisbursable:   true,
		},
	}, nil).Maybe()
	return client
}

func newTestRouter(t *testing.T) (http.Handler, *pipelineEnv) {
	t.Helper()
	c := testConfig()
	env, err := buildPipeline(c, newMockDirectory(t), "")
	require.NoError(t, err)
	return newRouter(env, c.Server.AllowedOrigins, c.Pipeline.TopN), env
}

func postRecommendation(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const quakeRequest = `{
  "article": {
    "title": "Earthquake devastates southern Turkey",
    "entities": {"geography": {"country": "Turkey"}, "disaster_type": "earthquake"},
    "causes": ["disaster_relief"]
  },
  "debug": true
}`

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "circuits")
}

func TestRecommendations_Success(t *testing.T) {
	h, _ := newTestRouter(t)

	w := postRecommendation(t, h, quakeRequest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var res recommend.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Nonprofits)
	assert.Equal(t, "akut", res.Nonprofits[0].Slug)
	require.NotNil(t, res.Debug)
	assert.False(t, res.Debug.CacheHit)
	assert.Positive(t, res.Debug.APICalls)
}

func TestRecommendations_SecondCallIsCached(t *testing.T) {
	h, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, postRecommendation(t, h, quakeRequest).Code)
	w := postRecommendation(t, h, quakeRequest)
	require.Equal(t, http.StatusOK, w.Code)

	var res recommend.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Debug)
	assert.True(t, res.Debug.CacheHit)
	assert.Zero(t, res.Debug.APICalls)
}

func TestRecommendations_NoDebugByDefault(t *testing.T) {
	h, _ := newTestRouter(t)

	w := postRecommendation(t, h, `{"article": {"title": "Earthquake devastates southern Turkey"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"debug"`)
}

func TestRecommendations_BadBody(t *testing.T) {
	h, _ := newTestRouter(t)

	w := postRecommendation(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestRecommendations_EmptyArticle(t *testing.T) {
	h, _ := newTestRouter(t)

	w := postRecommendation(t, h, `{"article": {"title": "   "}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "article has no title")
}

func TestCacheStats(t *testing.T) {
	h, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, postRecommendation(t, h, quakeRequest).Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Caches []struct {
			Name string `json:"name"`
		} `json:"caches"`
		EstimatedCost float64 `json:"estimated_cost_usd"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Caches)
	assert.Equal(t, "results", body.Caches[0].Name)
	assert.Positive(t, body.EstimatedCost)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, postRecommendation(t, h, quakeRequest).Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "relief_recommendations_total")
	assert.Contains(t, body, "relief_directory_calls_total")
	assert.Contains(t, body, `relief_cache_entries{cache="results"}`)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/recommendations", nil)
	req.Header.Set("Origin", "https://news.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- startServer(ctx, h, port, time.Second) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
