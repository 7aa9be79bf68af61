package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/logging"
	"github.com/geniass/grocery-dealz/pkg/metrics"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics.Register()

	s, err := scraper.NewScraper(cfg, log)
	if err != nil {
		log.Fatal("unable to create scraper", zap.Error(err))
	}

	router := newRouter(cfg, newHandler(cfg, s, log), log)

	addr := ":" + cfg.Web.Port
	log.Info("dev server listening", zap.String("addr", addr), zap.String("data_dir", cfg.Output.DataDir))
	if err := router.Run(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
