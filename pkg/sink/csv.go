package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"go.uber.org/zap"

	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

type CSVSink struct {
	path string
	log  *zap.Logger
}

func NewCSVSink(path string, log *zap.Logger) *CSVSink {
	return &CSVSink{path: path, log: log}
}

func (s *CSVSink) Write(ctx context.Context, rows []scraper.ComparisonRow) error {
	if len(rows) == 0 {
		return ErrNoMatches
	}

	err := dataio.WriteFileAtomic(s.path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(scraper.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.Write(row.Record()); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.log.Info("comparison written", zap.String("path", s.path), zap.Int("rows", len(rows)))
	return nil
}
