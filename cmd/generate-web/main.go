package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/logging"
	"github.com/geniass/grocery-dealz/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dataDirNameArg := flag.String("data-dir", cfg.Output.DataDir, "directory that contains json run snapshots")
	ouputDirArg := flag.String("output-dir", "docs", "directory to write rendered HTML content to")
	pagePathPrefixArg := flag.String("path-prefix", "", "prefix page link URLs (in case pages are hosted at a subpath); should start with '/'")

	flag.Parse()

	log, err := logging.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := generate(*dataDirNameArg, *ouputDirArg, web.BaseContext{PathPrefix: *pagePathPrefixArg}, log); err != nil {
		log.Fatal("unable to generate pages", zap.Error(err))
	}
}

// generate renders one page per run snapshot plus an index linking them.
func generate(dataDir, outputDir string, base web.BaseContext, log *zap.Logger) error {
	if err := os.MkdirAll(outputDir, os.ModeDir|0775); err != nil {
		return err
	}

	runs, err := dataio.LoadFromDir(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("data dir does not exist, assuming no comparisons", zap.String("dir", dataDir))
	} else if err != nil {
		return err
	}

	for _, r := range runs {
		err := renderToFile(outputDir, web.PageName(r.Query), func(w io.Writer) error {
			return web.RenderComparison(w, web.NewComparisonContext(base, r.Run))
		})
		if err != nil {
			return err
		}
		log.Debug("rendered comparison", zap.String("query", r.Query), zap.String("source", r.Path))
	}

	err = renderToFile(outputDir, "index.html", func(w io.Writer) error {
		return web.RenderHome(w, web.HomeContext{BaseContext: base, Runs: web.NewRunLinks(runs)})
	})
	if err != nil {
		return err
	}

	log.Info("pages generated", zap.Int("comparisons", len(runs)), zap.String("dir", outputDir))
	return nil
}

func renderToFile(dir string, filename string, renderFunc func(w io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := renderFunc(f); err != nil {
		return err
	}
	return nil
}
