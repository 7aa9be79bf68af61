package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scraper Prometheus metrics.
var (
	PageRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "page_requests_total",
			Help:      "Total number of search page requests",
		},
		[]string{"retailer", "outcome"}, // ok, unavailable, bad_status, transport
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "page_retries_total",
			Help:      "Total number of page request retries after a transient failure",
		},
		[]string{"retailer"},
	)

	ListingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "listings_extracted_total",
			Help:      "Total number of listings accepted by the extractors",
		},
		[]string{"retailer"},
	)

	ComparisonRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "comparison_rows_total",
			Help:      "Total number of comparison rows produced by the matcher",
		},
		[]string{"strategy"},
	)
)

var registered bool

// Register registers the scraper metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(PageRequestsTotal)
	prometheus.MustRegister(RetriesTotal)
	prometheus.MustRegister(ListingsTotal)
	prometheus.MustRegister(ComparisonRowsTotal)
	registered = true
}
