package sink

import (
	"context"
	"time"

	"go.uber.org/zap"

	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

// JSONSink stores the comparison as a run snapshot for the web report.
type JSONSink struct {
	dir      string
	query    string
	strategy string
	now      func() time.Time
	log      *zap.Logger
}

func NewJSONSink(dir, query, strategy string, log *zap.Logger) *JSONSink {
	return &JSONSink{dir: dir, query: query, strategy: strategy, now: time.Now, log: log}
}

func (s *JSONSink) Write(ctx context.Context, rows []scraper.ComparisonRow) error {
	if len(rows) == 0 {
		return ErrNoMatches
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := dataio.WriteRun(s.dir, dataio.NewRun(s.query, s.strategy, s.now(), rows))
	if err != nil {
		return err
	}

	s.log.Info("comparison written", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}
