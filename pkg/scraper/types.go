package scraper

import (
	"math"
	"strconv"
)

// Unknown marks a field the page did not provide or that could not be converted.
const Unknown = "unknown"

type Retailer string

const (
	Amazon Retailer = "amazon"
	Grace  Retailer = "grace"
)

// Listing is one normalized product found on a retailer's search page.
type Listing struct {
	Retailer Retailer
	Name     string
	// Price is nil when undefined. Grace listings use +Inf for an unreadable price.
	Price    *float64
	Quantity Quantity
	URL      string
	SourceID string
	Score    int
}

func (l Listing) PriceString() string {
	switch {
	case l.Price == nil:
		return ""
	case math.IsInf(*l.Price, 1):
		return "inf"
	default:
		return strconv.FormatFloat(*l.Price, 'f', -1, 64)
	}
}

// ComparisonRow pairs one Amazon listing with one Grace listing.
type ComparisonRow struct {
	Amazon Listing
	Grace  Listing
}

// Columns is the header of every tabular output, in record order.
var Columns = []string{
	"Product Name_Amazon",
	"Price_Amazon",
	"Quantity_Amazon",
	"More_Info_Amazon",
	"ASIN",
	"Product Name_Grace",
	"Price_Grace",
	"Quantity_Grace",
	"More_Info_Grace",
}

// Record flattens the row into strings matching Columns.
func (r ComparisonRow) Record() []string {
	return []string{
		r.Amazon.Name,
		r.Amazon.PriceString(),
		r.Amazon.Quantity.String(),
		r.Amazon.URL,
		r.Amazon.SourceID,
		r.Grace.Name,
		r.Grace.PriceString(),
		r.Grace.Quantity.String(),
		r.Grace.URL,
	}
}

// Values flattens the row like Record but keeps numbers numeric.
// Undefined prices are nil.
func (r ComparisonRow) Values() []interface{} {
	return []interface{}{
		r.Amazon.Name,
		priceValue(r.Amazon.Price),
		quantityValue(r.Amazon.Quantity),
		r.Amazon.URL,
		r.Amazon.SourceID,
		r.Grace.Name,
		priceValue(r.Grace.Price),
		quantityValue(r.Grace.Quantity),
		r.Grace.URL,
	}
}

func priceValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	if math.IsInf(*p, 0) {
		return "inf"
	}
	return *p
}

func quantityValue(q Quantity) interface{} {
	if !q.Known {
		return Unknown
	}
	return q.Value
}
