package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

func TestRenderHome(t *testing.T) {
	runs := []dataio.RunWithPath{{
		Run: dataio.Run{
			Query:   "Red Apple",
			RunDate: time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC),
			Rows:    [][]string{{"a"}, {"b"}},
		},
	}}

	var buf bytes.Buffer
	err := RenderHome(&buf, HomeContext{BaseContext: BaseContext{PathPrefix: "/dealz"}, Runs: NewRunLinks(runs)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `href="/dealz/`+PageName("Red Apple")+`"`)
	assert.Contains(t, out, "Red Apple")
	assert.Contains(t, out, "<td>2</td>")
}

func TestRenderHomeWithoutRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHome(&buf, HomeContext{}))
	assert.Contains(t, buf.String(), "No comparisons yet.")
}

func TestRenderComparison(t *testing.T) {
	r := dataio.Run{
		Query:    "tomato",
		Strategy: "cross_join",
		RunDate:  time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC),
		Columns:  scraper.Columns,
		Rows: [][]string{{
			"Tomato <1kg>", "40", "1000", "https://www.amazon.in/dp/B07AAA0001", "B07AAA0001",
			"Tomato Hybrid", "inf", "unknown", "unknown",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderComparison(&buf, NewComparisonContext(BaseContext{}, r)))

	out := buf.String()
	assert.Contains(t, out, "<th>Product Name_Amazon</th>")
	assert.Contains(t, out, `href="https://www.amazon.in/dp/B07AAA0001"`)
	assert.Contains(t, out, "Tomato &lt;1kg&gt;")
	assert.Contains(t, out, "<td>inf</td>")
	assert.NotContains(t, out, `href="unknown"`)
}

func TestFormattedLastUpdated(t *testing.T) {
	c := ComparisonContext{LastUpdated: time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC)}
	// Asia/Kolkata is UTC+05:30 when tzdata is available
	got := c.FormattedLastUpdated()
	assert.Contains(t, []string{"2024-03-01T12:00:00 IST", "2024-03-01T06:30:00 UTC"}, got)
}

func TestPageName(t *testing.T) {
	assert.Equal(t, "tomato.html", PageName("Tomato"))
}
