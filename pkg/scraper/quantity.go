package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Unit is the canonical unit family of a quantity.
type Unit string

const (
	Grams       Unit = "g"
	Milliliters Unit = "ml"
	Count       Unit = "count"
)

// Quantity is a canonical amount. Known is false for "unknown".
type Quantity struct {
	Value float64
	Unit  Unit
	Known bool
}

func (q Quantity) String() string {
	if !q.Known {
		return Unknown
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

// kg must come before g and ml before l so the longer token wins at the same offset.
// The unit must end at a word boundary: "12 Large" is not 12 litres.
var quantityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?(kg|g|ml|l|pcs|pack)\b`)

// NormalizeQuantity converts the leftmost quantity expression in text to grams or
// milliliters. Counts (pcs, pack) are recognized but have no canonical value.
func NormalizeQuantity(log *zap.Logger, text string) Quantity {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		log.Debug("no quantity found", zap.String("text", text))
		return Quantity{}
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsInf(n, 0) {
		log.Warn("unable to convert quantity", zap.String("quantity", m[0]), zap.Error(err))
		return Quantity{}
	}

	switch strings.ToLower(m[2]) {
	case "kg":
		return Quantity{Value: n * 1000, Unit: Grams, Known: true}
	case "g":
		return Quantity{Value: n, Unit: Grams, Known: true}
	case "l":
		return Quantity{Value: n * 1000, Unit: Milliliters, Known: true}
	case "ml":
		return Quantity{Value: n, Unit: Milliliters, Known: true}
	default:
		return Quantity{Unit: Count}
	}
}
