package web

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	dataio "github.com/geniass/grocery-dealz/pkg/io"
)

//go:embed templates
var templatesFs embed.FS

type BaseContext struct {
	PathPrefix string
}

// RunLink is one entry of the home page.
type RunLink struct {
	Query   string
	RunDate time.Time
	Rows    int
	Page    string
}

func (l RunLink) FormattedRunDate() string {
	return formatTime(l.RunDate)
}

type HomeContext struct {
	BaseContext
	Runs []RunLink
}

type ComparisonContext struct {
	BaseContext
	Title       string
	Strategy    string
	LastUpdated time.Time
	Columns     []string
	Rows        [][]string
}

func (c ComparisonContext) FormattedLastUpdated() string {
	return formatTime(c.LastUpdated)
}

// NewComparisonContext builds the page context for a stored run.
func NewComparisonContext(base BaseContext, r dataio.Run) ComparisonContext {
	return ComparisonContext{
		BaseContext: base,
		Title:       r.Query,
		Strategy:    r.Strategy,
		LastUpdated: r.RunDate,
		Columns:     r.Columns,
		Rows:        r.Rows,
	}
}

// PageName is the HTML file a run is rendered to.
func PageName(query string) string {
	return strings.TrimSuffix(dataio.RunFileName(query), ".json") + ".html"
}

func NewRunLinks(runs []dataio.RunWithPath) []RunLink {
	links := make([]RunLink, 0, len(runs))
	for _, r := range runs {
		links = append(links, RunLink{
			Query:   r.Query,
			RunDate: r.RunDate,
			Rows:    len(r.Rows),
			Page:    PageName(r.Query),
		})
	}
	return links
}

func formatTime(t time.Time) string {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02T15:04:05 MST")
}

func RenderComparison(w io.Writer, c ComparisonContext) error {
	return render(w, "templates/comparison.html.tpl", c)
}

func RenderHome(w io.Writer, c HomeContext) error {
	return render(w, "templates/index.html.tpl", c)
}

func render(w io.Writer, page string, data interface{}) error {
	t, err := template.ParseFS(templatesFs, page)
	if err != nil {
		return err
	}
	t, err = t.ParseFS(templatesFs, "templates/common/*")
	if err != nil {
		return err
	}

	return t.Execute(w, data)
}
