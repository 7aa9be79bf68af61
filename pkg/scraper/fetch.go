package scraper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// PageFetcher issues single GET requests through a colly collector and hands back the
// raw body. It never retries; that is up to the retailer fetchers.
type PageFetcher struct {
	colly   *colly.Collector
	limiter *rate.Limiter
}

// limiter may be nil for no request rate limit.
func NewPageFetcher(c *colly.Collector, limiter *rate.Limiter) *PageFetcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &PageFetcher{colly: c, limiter: limiter}
}

// Get returns the body of a 2xx response. Other statuses come back as *StatusError,
// network failures wrap ErrTransport.
func (f *PageFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
	}

	// a clone per request keeps callbacks local, so both retailers can share one collector
	c := f.colly.Clone()
	c.Context = ctx
	c.ParseHTTPErrorResponse = true
	c.AllowURLRevisit = true

	var (
		status int
		body   []byte
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, rawURL, err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: status}
	}
	return body, nil
}

// resolveLink makes href absolute against origin. Absolute hrefs are kept as they are.
func resolveLink(origin, href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() || origin == "" {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// searchURL appends params to base, keeping any query the base already has.
func searchURL(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %q: %w", base, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
