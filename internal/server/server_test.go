package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/muesli/clusters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawngo/kcluster/internal/kmeans"
	"github.com/mawngo/kcluster/internal/metrics"
	"github.com/mawngo/kcluster/internal/service"
)

type response struct {
	Msg   string     `json:"msg"`
	Data  [][]string `json:"data"`
	Error string     `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	corpus, err := kmeans.NewCorpus(3, []kmeans.Document{
		{Name: "P", Features: clusters.Coordinates{1, 0, 0}},
		{Name: "Q", Features: clusters.Coordinates{1, 0, 1}},
		{Name: "R", Features: clusters.Coordinates{0, 4, 5}},
		{Name: "S", Features: clusters.Coordinates{0, 5, 4}},
	})
	require.NoError(t, err)

	m := metrics.New()
	clusterer := service.NewClusterer(corpus,
		service.WithSeed(1),
		service.WithMaxIterations(100),
		service.WithMetrics(m))
	return New(clusterer, Config{Gatherer: m.Registry()})
}

func do(t *testing.T, s *Server, target string) (*http.Response, response) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body response
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(b, &body))
	}
	return resp, body
}

func TestKMeans_OK(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, "/k-means?clusters=3&iterations=4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "Cluster assignments", body.Msg)
	require.Len(t, body.Data, 3)

	n := 0
	for _, g := range body.Data {
		require.NotNil(t, g)
		n += len(g)
	}
	assert.Equal(t, 4, n)
}

func TestKMeans_ZeroIterations(t *testing.T) {
	resp, body := do(t, newTestServer(t), "/k-means?clusters=2&iterations=0")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, [][]string{{}, {}}, body.Data)
}

func TestKMeans_BadRequest(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{
		"/k-means",
		"/k-means?clusters=2",
		"/k-means?clusters=abc&iterations=1",
		"/k-means?clusters=0&iterations=1",
		"/k-means?clusters=5&iterations=1",
		"/k-means?clusters=2&iterations=-1",
		"/k-means?clusters=2&iterations=101",
	} {
		resp, body := do(t, s, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		assert.Contains(t, body.Error, "invalid input", target)
	}
}

func TestChart(t *testing.T) {
	resp, err := newTestServer(t).App().Test(httptest.NewRequest(http.MethodGet, "/k-means/chart?clusters=2&iterations=2", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Cluster 2")
}

func TestChart_BadRequest(t *testing.T) {
	resp, _ := do(t, newTestServer(t), "/k-means/chart?clusters=x&iterations=2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	do(t, s, "/k-means?clusters=2&iterations=1")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `kcluster_runs_total{outcome="ok"} 1`)
}

func TestNotFound(t *testing.T) {
	resp, body := do(t, newTestServer(t), "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body.Error)
}

func TestStatusOf(t *testing.T) {
	code, msg := statusOf(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", msg)

	code, _ = statusOf(service.ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, code)
}
