package scraper

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/geniass/grocery-dealz/pkg/config"
)

// priceNotAvailable stands in for a missing price; it never parses, so it ends up +Inf.
const priceNotAvailable = "Price Not Available"

func hasClass(class string) string {
	return fmt.Sprintf(`contains(concat(' ', normalize-space(@class), ' '), ' %s ')`, class)
}

var (
	graceItemXPath     = `//div[` + hasClass("item-contents") + `]`
	graceNameXPath     = `.//span[` + hasClass("item-name") + `]`
	graceQuantityXPath = `.//div[` + hasClass("item-default") + ` and ` + hasClass("item-quantity") + `]`
	gracePriceXPath    = `.//div[` + hasClass("item-price") + `]//span`
	graceLinkXPath     = `.//a`
	graceBrandXPath    = `.//span[` + hasClass("item-brand") + `]`

	mrpLabel = regexp.MustCompile(`(?i)^\s*mrp\s*:?`)
)

// BlockCounter reports how many listing blocks a raw page holds.
type BlockCounter interface {
	CountBlocks(page []byte) int
}

// GraceFetcher pages through storefront search results until maxPages or the first
// page without item blocks. Unlike AmazonFetcher, any failure is returned.
type GraceFetcher struct {
	fetcher   *PageFetcher
	baseURL   string
	pageDelay time.Duration
	counter   BlockCounter
	sleep     Sleeper
	log       *zap.Logger
}

func NewGraceFetcher(fetcher *PageFetcher, counter BlockCounter, cfg config.GraceConfig, log *zap.Logger) *GraceFetcher {
	return &GraceFetcher{
		fetcher:   fetcher,
		baseURL:   cfg.BaseURL,
		pageDelay: cfg.PageDelay,
		counter:   counter,
		sleep:     SleepContext,
		log:       log.With(zap.String("retailer", string(Grace))),
	}
}

// Fetch returns the pages collected so far alongside any error.
func (f *GraceFetcher) Fetch(ctx context.Context, query Query, maxPages int) ([][]byte, error) {
	var collected [][]byte

	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := f.sleep(ctx, f.pageDelay); err != nil {
				return collected, err
			}
		}

		u, err := searchURL(f.baseURL, url.Values{"q": {query.String()}, "page": {strconv.Itoa(page)}})
		if err != nil {
			return collected, err
		}

		body, err := f.fetcher.Get(ctx, u)
		recordRequest(Grace, err)
		if err != nil {
			return collected, fmt.Errorf("page %d: %w", page, err)
		}
		collected = append(collected, body)

		if f.counter.CountBlocks(body) == 0 {
			f.log.Debug("no items on page, end of results", zap.Int("page", page))
			break
		}
	}

	return collected, nil
}

// GraceParser reads storefront item blocks with XPath.
type GraceParser struct {
	Origin string
	log    *zap.Logger
}

func NewGraceParser(origin string, log *zap.Logger) GraceParser {
	return GraceParser{Origin: origin, log: log}
}

func (p GraceParser) CountBlocks(page []byte) int {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return 0
	}
	return len(htmlquery.Find(doc, graceItemXPath))
}

// Parse returns one candidate per item block; nothing is skipped here.
func (p GraceParser) Parse(page []byte) ([]Candidate, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, item := range htmlquery.Find(doc, graceItemXPath) {
		// a missing name stays empty so it never scores
		var name string
		if n := htmlquery.FindOne(item, graceNameXPath); n != nil {
			name = innerText(n)
		}
		quantity := Unknown
		if n := htmlquery.FindOne(item, graceQuantityXPath); n != nil {
			quantity = innerText(n)
		}

		c := Candidate{
			Name:         name,
			QuantityText: displayName(name) + " " + quantity,
			Price:        p.parsePrice(item),
			URL:          Unknown,
		}
		if a := htmlquery.FindOne(item, graceLinkXPath); a != nil {
			if href := htmlquery.SelectAttr(a, "href"); href != "" {
				c.URL = resolveLink(p.Origin, href)
			}
		}
		if b := htmlquery.FindOne(item, graceBrandXPath); b != nil {
			c.Brand = innerText(b)
			c.HasBrand = true
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// parsePrice reads the first span of the price container. Anything unreadable,
// including a missing price, becomes +Inf so it sorts last by price.
func (p GraceParser) parsePrice(item *html.Node) *float64 {
	text := priceNotAvailable
	if n := htmlquery.FindOne(item, gracePriceXPath); n != nil {
		text = strings.TrimSpace(mrpLabel.ReplaceAllString(innerText(n), ""))
	}

	price, err := strconv.ParseFloat(cleanPrice(text), 64)
	if err != nil || !validPrice(price) {
		p.log.Debug("unable to convert price", zap.String("price", text), zap.Error(err))
		price = math.Inf(1)
	}
	return &price
}

func innerText(n *html.Node) string {
	return strings.TrimSpace(htmlquery.InnerText(n))
}
