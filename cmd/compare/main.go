package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/jawher/mow.cli"
	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/logging"
	"github.com/geniass/grocery-dealz/pkg/scraper"
	"github.com/geniass/grocery-dealz/pkg/sink"
)

const prompt = "Enter the fruit or vegetable you want to search for: "

func main() {
	app := cli.App("compare", "Compare Amazon and Grace prices for a fruit or vegetable")
	app.Spec = "[OPTIONS] [QUERY]"

	var (
		queryArg    = app.StringArg("QUERY", "", "what to search for; prompted for when omitted")
		outArg      = app.StringOpt("o out", "", "output file (default from config: product_comparison.xlsx)")
		formatArg   = app.StringOpt("f format", "", "output format: xlsx, csv, sql or json (default: from the output file extension)")
		strategyArg = app.StringOpt("s strategy", "", "matching strategy: cross_join or name_quantity")
		amazonArg   = app.IntOpt("amazon-pages", 0, "number of Amazon result pages to fetch")
		graceArg    = app.IntOpt("grace-pages", 0, "maximum number of Grace result pages to fetch")
		dataDirArg  = app.StringOpt("data-dir", "", "directory for json run snapshots")
	)

	app.Action = func() {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			cli.Exit(1)
		}
		applyOverrides(cfg, overrides{
			out:         *outArg,
			format:      *formatArg,
			strategy:    *strategyArg,
			amazonPages: *amazonArg,
			gracePages:  *graceArg,
			dataDir:     *dataDirArg,
		})

		log, err := logging.NewLogger(cfg.Log.Env, cfg.Log.Level)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			cli.Exit(1)
		}
		defer log.Sync()

		query := *queryArg
		if strings.TrimSpace(query) == "" {
			query, err = readQuery(os.Stdin, os.Stdout)
			if err != nil {
				log.Error("unable to read search query", zap.Error(err))
				cli.Exit(1)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := run(logging.ContextWithLogger(ctx, log), cfg, scraper.NewQuery(query), os.Stdout); err != nil {
			log.Error("comparison failed", zap.Error(err))
			cli.Exit(1)
		}
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type overrides struct {
	out         string
	format      string
	strategy    string
	amazonPages int
	gracePages  int
	dataDir     string
}

func applyOverrides(cfg *config.Config, o overrides) {
	if o.out != "" {
		cfg.Output.Path = o.out
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.strategy != "" {
		cfg.Match.Strategy = o.strategy
	}
	if o.amazonPages > 0 {
		cfg.Amazon.Pages = o.amazonPages
	}
	if o.gracePages > 0 {
		cfg.Grace.MaxPages = o.gracePages
	}
	if o.dataDir != "" {
		cfg.Output.DataDir = o.dataDir
	}
}

func readQuery(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// run compares, writes the configured sink and prints a summary to out.
// An empty result is reported, not failed.
func run(ctx context.Context, cfg *config.Config, query scraper.Query, out io.Writer) error {
	log := logging.FromContext(ctx)

	s, err := scraper.NewScraper(cfg, log)
	if err != nil {
		return err
	}

	rows, err := s.Compare(ctx, query)
	if err != nil {
		return err
	}

	snk, err := sink.New(sink.Options{
		Format:   cfg.Output.Format,
		Path:     cfg.Output.Path,
		DataDir:  cfg.Output.DataDir,
		Query:    query.String(),
		Strategy: cfg.Match.Strategy,
		Database: cfg.Database,
	}, log)
	if err != nil {
		return err
	}
	if c, ok := snk.(io.Closer); ok {
		defer c.Close()
	}

	err = snk.Write(ctx, rows)
	if errors.Is(err, sink.ErrNoMatches) {
		fmt.Fprintln(out, "No matching products found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	return summaryTemplate.Execute(out, newSummary(cfg, query, rows))
}
