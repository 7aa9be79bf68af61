package scraper

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/metrics"
)

// Scraper runs both retailer pipelines for a query and pairs their listings.
type Scraper struct {
	amazon        *AmazonFetcher
	amazonExtract *Extractor
	amazonPages   int

	grace        *GraceFetcher
	graceExtract *Extractor
	gracePages   int

	matcher Matcher
	log     *zap.Logger
}

func NewScraper(cfg *config.Config, log *zap.Logger) (*Scraper, error) {
	strategy, err := ParseStrategy(cfg.Match.Strategy)
	if err != nil {
		return nil, err
	}

	c := NewCollector(cfg.Scraper)

	// each pipeline gets its own limiter so neither waits on the other
	amazonFetcher := NewPageFetcher(c, newLimiter(cfg.Scraper.RequestsPerSecond))
	graceFetcher := NewPageFetcher(c, newLimiter(cfg.Scraper.RequestsPerSecond))

	graceParser := NewGraceParser(cfg.Grace.Origin, log)

	return &Scraper{
		amazon:        NewAmazonFetcher(amazonFetcher, cfg.Amazon, log),
		amazonExtract: NewAmazonExtractor(cfg.Amazon, log),
		amazonPages:   cfg.Amazon.Pages,
		grace:         NewGraceFetcher(graceFetcher, graceParser, cfg.Grace, log),
		graceExtract:  NewGraceExtractor(cfg.Grace, log),
		gracePages:    cfg.Grace.MaxPages,
		matcher:       Matcher{Strategy: strategy, MinNameOverlap: cfg.Match.MinNameOverlap},
		log:           log,
	}, nil
}

// NewCollector builds the shared collector. cfg.CacheDir can be empty to disable caching.
func NewCollector(cfg config.ScraperConfig) *colly.Collector {
	options := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	}

	if cfg.CacheDir != "" {
		options = append(options, colly.CacheDir(cfg.CacheDir))
	}

	c := colly.NewCollector(options...)

	// search pages work without a session
	c.DisableCookies()

	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}
	return c
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Compare searches both retailers concurrently and matches the results. Amazon failures
// only shrink its result set; a Grace failure fails the whole comparison.
func (s *Scraper) Compare(ctx context.Context, query Query) ([]ComparisonRow, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("empty search query")
	}

	var amazonListings, graceListings []Listing

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pages := s.amazon.Fetch(gctx, query, s.amazonPages)
		amazonListings = s.amazonExtract.Extract(pages, query)
		return nil
	})
	g.Go(func() error {
		pages, err := s.grace.Fetch(gctx, query, s.gracePages)
		if err != nil {
			return fmt.Errorf("grace search: %w", err)
		}
		graceListings = s.graceExtract.Extract(pages, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := s.matcher.Match(amazonListings, graceListings)
	metrics.ComparisonRowsTotal.WithLabelValues(string(s.matcher.Strategy)).Add(float64(len(rows)))
	s.log.Info("comparison ready",
		zap.String("query", query.String()),
		zap.String("strategy", string(s.matcher.Strategy)),
		zap.Int("amazon", len(amazonListings)),
		zap.Int("grace", len(graceListings)),
		zap.Int("rows", len(rows)))

	return rows, nil
}
