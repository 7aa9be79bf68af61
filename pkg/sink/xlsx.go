package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	dataio "github.com/geniass/grocery-dealz/pkg/io"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

const sheetName = "Sheet1"

// XLSXSink writes a single-sheet workbook with a header row. Prices and known
// quantities are stored as numbers.
type XLSXSink struct {
	path string
	log  *zap.Logger
}

func NewXLSXSink(path string, log *zap.Logger) *XLSXSink {
	return &XLSXSink{path: path, log: log}
}

func (s *XLSXSink) Write(ctx context.Context, rows []scraper.ComparisonRow) error {
	if len(rows) == 0 {
		return ErrNoMatches
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(scraper.Columns))
	for i, c := range scraper.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	err := dataio.WriteFileAtomic(s.path, func(out *os.File) error {
		return f.Write(out)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.log.Info("comparison written", zap.String("path", s.path), zap.Int("rows", len(rows)))
	return nil
}
