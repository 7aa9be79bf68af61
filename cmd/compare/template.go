package main

import (
	"text/template"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/scraper"
	"github.com/geniass/grocery-dealz/pkg/sink"
)

type summary struct {
	Query       string
	Destination string
	Rows        int
	Amazon      int
	Grace       int
}

func newSummary(cfg *config.Config, query scraper.Query, rows []scraper.ComparisonRow) summary {
	amazon := map[string]bool{}
	grace := map[string]bool{}
	for _, r := range rows {
		amazon[r.Amazon.SourceID+r.Amazon.Name] = true
		grace[r.Grace.URL+r.Grace.Name] = true
	}

	s := summary{
		Query:       query.String(),
		Destination: cfg.Output.Path,
		Rows:        len(rows),
		Amazon:      len(amazon),
		Grace:       len(grace),
	}

	switch format, _ := sink.ResolveFormat(cfg.Output.Format, cfg.Output.Path); format {
	case sink.SQL:
		s.Destination = cfg.Database.Driver + " table product_comparison"
	case sink.JSON:
		s.Destination = cfg.Output.DataDir
	}
	return s
}

var summaryTemplate = template.Must(template.New("summaryTemplate").Parse(
	`Comparison for "{{ .Query }}"
Amazon products: {{ .Amazon }}
Grace products: {{ .Grace }}
Results saved to {{ .Destination }} ({{ .Rows }} rows)
`,
))
