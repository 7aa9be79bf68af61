package scraper

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/metrics"
)

const (
	amazonResultSelector   = `div[data-component-type="s-search-result"]`
	amazonTitleSelector    = "span.a-size-base-plus.a-color-base.a-text-normal"
	amazonWholeSelector    = "span.a-price-whole"
	amazonFractionSelector = "span.a-price-fraction"
	amazonLinkSelector     = "a.a-link-normal.s-no-outline"
)

// AmazonFetcher pages through marketplace search results. Bot defense shows up as 503s,
// which are retried with backoff; any other failure ends the search with what it has.
type AmazonFetcher struct {
	fetcher   *PageFetcher
	baseURL   string
	policy    RetryPolicy
	pageDelay time.Duration
	log       *zap.Logger
}

func NewAmazonFetcher(fetcher *PageFetcher, cfg config.AmazonConfig, log *zap.Logger) *AmazonFetcher {
	log = log.With(zap.String("retailer", string(Amazon)))

	policy := NewRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RetriesTotal.WithLabelValues(string(Amazon)).Inc()
		log.Warn("service unavailable, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))
	}

	return &AmazonFetcher{
		fetcher:   fetcher,
		baseURL:   cfg.BaseURL,
		policy:    policy,
		pageDelay: cfg.PageDelay,
		log:       log,
	}
}

// Fetch returns the raw bodies of pages 1..pages. It never fails: on an unrecoverable
// error the pages collected so far are returned.
func (f *AmazonFetcher) Fetch(ctx context.Context, query Query, pages int) [][]byte {
	var collected [][]byte

	for page := 1; page <= pages; page++ {
		if page > 1 {
			if err := f.policy.Sleep(ctx, f.pageDelay); err != nil {
				f.log.Warn("search cancelled", zap.Int("pages_collected", len(collected)), zap.Error(err))
				return collected
			}
		}

		u, err := searchURL(f.baseURL, url.Values{"k": {query.String()}, "page": {strconv.Itoa(page)}})
		if err != nil {
			f.log.Error("cannot build search url", zap.Error(err))
			return collected
		}

		var body []byte
		err = f.policy.Do(ctx, func(attempt int) error {
			b, err := f.fetcher.Get(ctx, u)
			recordRequest(Amazon, err)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
		if err != nil {
			f.log.Warn("search aborted, returning partial results",
				zap.Int("page", page),
				zap.Int("pages_collected", len(collected)),
				zap.Error(err))
			return collected
		}

		f.log.Debug("fetched page", zap.Int("page", page), zap.Int("bytes", len(body)))
		collected = append(collected, body)
	}

	return collected
}

// AmazonParser reads marketplace search result blocks.
type AmazonParser struct {
	Origin string
	log    *zap.Logger
}

func NewAmazonParser(origin string, log *zap.Logger) AmazonParser {
	return AmazonParser{Origin: strings.TrimRight(origin, "/"), log: log}
}

// Parse skips blocks without a title or a whole price; they can never become listings.
func (p AmazonParser) Parse(page []byte) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	doc.Find(amazonResultSelector).Each(func(_ int, s *goquery.Selection) {
		title := s.Find(amazonTitleSelector).First()
		whole := s.Find(amazonWholeSelector).First()
		asin, _ := s.Attr("data-asin")
		if title.Length() == 0 || whole.Length() == 0 {
			p.log.Debug("skipping result without title or price", zap.String("asin", asin))
			return
		}

		c := Candidate{
			Name:     strings.TrimSpace(title.Text()),
			Price:    p.parsePrice(whole.Text(), s.Find(amazonFractionSelector).First()),
			URL:      Unknown,
			SourceID: asin,
		}
		c.QuantityText = c.Name
		if href, ok := s.Find(amazonLinkSelector).First().Attr("href"); ok && href != "" {
			c.URL = resolveLink(p.Origin, href)
		}
		candidates = append(candidates, c)
	})

	return candidates, nil
}

// parsePrice joins the whole and fraction parts. The whole part usually carries its own
// trailing decimal point. Unreadable or non-positive prices are undefined.
func (p AmazonParser) parsePrice(whole string, fraction *goquery.Selection) *float64 {
	text := cleanPrice(whole)
	text = strings.TrimSuffix(text, ".")
	if fraction.Length() > 0 {
		if frac := cleanPrice(fraction.Text()); frac != "" {
			text += "." + frac
		}
	}

	price, err := strconv.ParseFloat(text, 64)
	if err != nil || !validPrice(price) {
		p.log.Debug("unable to convert price", zap.String("price", text), zap.Error(err))
		return nil
	}
	return &price
}

// validPrice rejects what ParseFloat accepts but no shelf price can be: inf, NaN and
// non-positive values.
func validPrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}

func cleanPrice(s string) string {
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

func recordRequest(r Retailer, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrServiceUnavailable):
		outcome = "unavailable"
	case errors.Is(err, ErrBadStatus):
		outcome = "bad_status"
	default:
		outcome = "transport"
	}
	metrics.PageRequestsTotal.WithLabelValues(string(r), outcome).Inc()
}
