package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/logging"
	"github.com/geniass/grocery-dealz/pkg/scraper"
	"github.com/geniass/grocery-dealz/pkg/sink"
	"github.com/geniass/grocery-dealz/pkg/web"
)

type comparer interface {
	Compare(ctx context.Context, query scraper.Query) ([]scraper.ComparisonRow, error)
}

type handler struct {
	comparer comparer
	dataDir  string
	strategy string
	log      *zap.Logger
}

func newHandler(cfg *config.Config, c comparer, log *zap.Logger) *handler {
	return &handler{comparer: c, dataDir: cfg.Output.DataDir, strategy: cfg.Match.Strategy, log: log}
}

func newRouter(cfg *config.Config, h *handler, log *zap.Logger) *gin.Engine {
	if cfg.Log.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/", h.home)
	router.GET("/compare", h.compare)
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/:page", h.run)

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), log))

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) home(c *gin.Context) {
	runs, err := h.loadRuns()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	h.html(c, func(buf *bytes.Buffer) error {
		return web.RenderHome(buf, web.HomeContext{Runs: web.NewRunLinks(runs)})
	})
}

// run serves a stored snapshot by its page name.
func (h *handler) run(c *gin.Context) {
	runs, err := h.loadRuns()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	page := c.Param("page")
	for _, r := range runs {
		if web.PageName(r.Query) == page {
			h.html(c, func(buf *bytes.Buffer) error {
				return web.RenderComparison(buf, web.NewComparisonContext(web.BaseContext{}, r.Run))
			})
			return
		}
	}
	c.String(http.StatusNotFound, "no comparison named %q", page)
}

// compare runs a live comparison, stores it as a snapshot and renders it.
func (h *handler) compare(c *gin.Context) {
	query := scraper.NewQuery(c.Query("q"))
	if query.IsEmpty() {
		c.String(http.StatusBadRequest, "missing query parameter q")
		return
	}

	ctx := c.Request.Context()
	rows, err := h.comparer.Compare(ctx, query)
	if err != nil {
		h.fail(c, http.StatusBadGateway, err)
		return
	}

	err = sink.NewJSONSink(h.dataDir, query.String(), h.strategy, logging.FromContext(ctx)).Write(ctx, rows)
	if err != nil && !errors.Is(err, sink.ErrNoMatches) {
		h.log.Warn("unable to store snapshot", zap.String("query", query.String()), zap.Error(err))
	}

	run := dataio.NewRun(query.String(), h.strategy, time.Now(), rows)
	h.html(c, func(buf *bytes.Buffer) error {
		return web.RenderComparison(buf, web.NewComparisonContext(web.BaseContext{}, run))
	})
}

func (h *handler) loadRuns() ([]dataio.RunWithPath, error) {
	runs, err := dataio.LoadFromDir(h.dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return runs, err
}

// html renders into a buffer first so a template error still yields a clean 500.
func (h *handler) html(c *gin.Context, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *handler) fail(c *gin.Context, status int, err error) {
	h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.String(status, http.StatusText(status))
}
