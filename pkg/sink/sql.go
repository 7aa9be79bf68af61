package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

const tableName = "product_comparison"

// sqlColumns mirrors scraper.Columns.
var sqlColumns = []string{
	"product_name_amazon",
	"price_amazon",
	"quantity_amazon",
	"more_info_amazon",
	"asin",
	"product_name_grace",
	"price_grace",
	"quantity_grace",
	"more_info_grace",
}

// SQLSink replaces the product_comparison table with the new rows in one transaction.
type SQLSink struct {
	db     *sql.DB
	driver string
	log    *zap.Logger
}

func NewSQLSink(cfg config.DatabaseConfig, log *zap.Logger) (*SQLSink, error) {
	switch cfg.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	return &SQLSink{db: db, driver: cfg.Driver, log: log}, nil
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}

func (s *SQLSink) Write(ctx context.Context, rows []scraper.ComparisonRow) (err error) {
	if len(rows) == 0 {
		return ErrNoMatches
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+tableName); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, s.createTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.insert())
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, rowArgs(row)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Info("comparison written", zap.String("table", tableName), zap.Int("rows", len(rows)))
	return nil
}

func (s *SQLSink) createTable() string {
	floatType := "REAL"
	if s.driver == "postgres" {
		floatType = "DOUBLE PRECISION"
	}
	return fmt.Sprintf(`CREATE TABLE %s (
		product_name_amazon TEXT NOT NULL,
		price_amazon        %[2]s,
		quantity_amazon     %[2]s,
		more_info_amazon    TEXT,
		asin                TEXT,
		product_name_grace  TEXT NOT NULL,
		price_grace         %[2]s,
		quantity_grace      %[2]s,
		more_info_grace     TEXT
	)`, tableName, floatType)
}

func (s *SQLSink) insert() string {
	placeholders := make([]string, len(sqlColumns))
	for i := range placeholders {
		if s.driver == "postgres" {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(sqlColumns, ", "), strings.Join(placeholders, ", "))
}

// rowArgs stores undefined prices and unknown quantities as NULL. +Inf is kept.
func rowArgs(r scraper.ComparisonRow) []interface{} {
	return []interface{}{
		r.Amazon.Name,
		nullFloat(r.Amazon.Price),
		nullQuantity(r.Amazon.Quantity),
		r.Amazon.URL,
		r.Amazon.SourceID,
		r.Grace.Name,
		nullFloat(r.Grace.Price),
		nullQuantity(r.Grace.Quantity),
		r.Grace.URL,
	}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullQuantity(q scraper.Quantity) sql.NullFloat64 {
	return sql.NullFloat64{Float64: q.Value, Valid: q.Known}
}
