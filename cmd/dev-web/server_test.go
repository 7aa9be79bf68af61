package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/geniass/grocery-dealz/pkg/config"
	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/scraper"
	"github.com/geniass/grocery-dealz/pkg/web"
)

type stubComparer struct {
	rows []scraper.ComparisonRow
	err  error
}

func (s stubComparer) Compare(ctx context.Context, query scraper.Query) ([]scraper.ComparisonRow, error) {
	return s.rows, s.err
}

func setupRouter(t *testing.T, c comparer) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Output.DataDir = filepath.Join(t.TempDir(), "data")
	log := zaptest.NewLogger(t)
	return newRouter(cfg, newHandler(cfg, c, log), log), cfg.Output.DataDir
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func testRows() []scraper.ComparisonRow {
	p := 25.0
	return []scraper.ComparisonRow{{
		Amazon: scraper.Listing{Name: "Lemon 250g", Price: &p, SourceID: "B07LEM0001", URL: scraper.Unknown},
		Grace:  scraper.Listing{Name: "Lemon", URL: scraper.Unknown},
	}}
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, stubComparer{})

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHomeWithoutData(t *testing.T) {
	router, _ := setupRouter(t, stubComparer{})

	w := get(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No comparisons yet.")
}

func TestCompareStoresSnapshot(t *testing.T) {
	router, dataDir := setupRouter(t, stubComparer{rows: testRows()})

	w := get(router, "/compare?q=lemon")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "B07LEM0001")

	_, err := os.Stat(filepath.Join(dataDir, dataio.RunFileName("lemon")))
	require.NoError(t, err)

	w = get(router, "/")
	assert.Contains(t, w.Body.String(), web.PageName("lemon"))

	w = get(router, "/"+web.PageName("lemon"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lemon 250g")
}

func TestCompareErrors(t *testing.T) {
	router, _ := setupRouter(t, stubComparer{err: errors.New("grace search: boom")})

	assert.Equal(t, http.StatusBadRequest, get(router, "/compare").Code)
	assert.Equal(t, http.StatusBadGateway, get(router, "/compare?q=lemon").Code)
}

func TestRunNotFound(t *testing.T) {
	router, dataDir := setupRouter(t, stubComparer{})
	_, err := dataio.WriteRun(dataDir, dataio.Run{Query: "onion", RunDate: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, get(router, "/garlic.html").Code)
	assert.Equal(t, http.StatusOK, get(router, "/onion.html").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, stubComparer{})

	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
