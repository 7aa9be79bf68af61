package scraper

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/metrics"
)

// Candidate is one result block as read from the markup, before scoring and filtering.
// Name is empty when the block has none.
type Candidate struct {
	Name         string
	QuantityText string
	Price        *float64
	URL          string
	SourceID     string
	Brand        string
	HasBrand     bool
}

// PageParser turns a raw page into candidates. Each retailer's markup gets its own
// implementation so layout changes stay out of scoring and normalization.
type PageParser interface {
	Parse(page []byte) ([]Candidate, error)
}

// AcceptFunc is a retailer-specific inclusion filter applied after scoring.
type AcceptFunc func(c Candidate) bool

// Extractor scores, filters and sorts the candidates of every page.
type Extractor struct {
	Retailer Retailer
	Parser   PageParser
	Accept   AcceptFunc
	log      *zap.Logger
}

func NewAmazonExtractor(cfg config.AmazonConfig, log *zap.Logger) *Extractor {
	log = log.With(zap.String("retailer", string(Amazon)))
	return &Extractor{
		Retailer: Amazon,
		Parser:   NewAmazonParser(cfg.Origin, log),
		Accept:   IDPrefix(cfg.ASINPrefix),
		log:      log,
	}
}

func NewGraceExtractor(cfg config.GraceConfig, log *zap.Logger) *Extractor {
	log = log.With(zap.String("retailer", string(Grace)))
	return &Extractor{
		Retailer: Grace,
		Parser:   NewGraceParser(cfg.Origin, log),
		Accept:   BrandPhrase(cfg.BrandPhrase),
		log:      log,
	}
}

// Extract keeps candidates with a positive score that pass Accept, sorted by score
// descending. Ties keep page order.
func (e *Extractor) Extract(pages [][]byte, query Query) []Listing {
	var listings []Listing

	for i, page := range pages {
		candidates, err := e.Parser.Parse(page)
		if err != nil {
			e.log.Warn("unable to parse page", zap.Int("page", i+1), zap.Error(err))
			continue
		}

		for _, c := range candidates {
			score := query.Score(c.Name)
			if score == 0 || !e.Accept(c) {
				continue
			}
			listings = append(listings, Listing{
				Retailer: e.Retailer,
				Name:     displayName(c.Name),
				Price:    c.Price,
				Quantity: NormalizeQuantity(e.log, c.QuantityText),
				URL:      c.URL,
				SourceID: c.SourceID,
				Score:    score,
			})
		}
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Score > listings[j].Score
	})

	metrics.ListingsTotal.WithLabelValues(string(e.Retailer)).Add(float64(len(listings)))
	e.log.Info("products found", zap.Int("count", len(listings)), zap.Int("pages", len(pages)))
	return listings
}

func displayName(name string) string {
	if name == "" {
		return Unknown
	}
	return name
}

// IDPrefix accepts candidates whose retailer identifier starts with prefix.
func IDPrefix(prefix string) AcceptFunc {
	return func(c Candidate) bool {
		return strings.HasPrefix(c.SourceID, prefix)
	}
}

// BrandPhrase accepts candidates with a brand label containing phrase, ignoring case.
func BrandPhrase(phrase string) AcceptFunc {
	phrase = strings.ToLower(phrase)
	return func(c Candidate) bool {
		return c.HasBrand && strings.Contains(strings.ToLower(c.Brand), phrase)
	}
}
