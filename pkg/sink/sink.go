package sink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/geniass/grocery-dealz/pkg/config"
	"github.com/geniass/grocery-dealz/pkg/scraper"
)

// ErrNoMatches is returned by every sink for an empty result; nothing is written.
var ErrNoMatches = errors.New("no matching products found")

// Sink persists a comparison.
type Sink interface {
	Write(ctx context.Context, rows []scraper.ComparisonRow) error
}

type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	SQL  Format = "sql"
	JSON Format = "json"
)

// ResolveFormat returns format if set, otherwise guesses it from the extension of path.
func ResolveFormat(format, path string) (Format, error) {
	switch Format(strings.ToLower(format)) {
	case XLSX, CSV, SQL, JSON:
		return Format(strings.ToLower(format)), nil
	case "":
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return SQL, nil
	default:
		return XLSX, nil
	}
}

type Options struct {
	Format   string
	Path     string
	DataDir  string
	Query    string
	Strategy string
	Database config.DatabaseConfig
}

// New builds the sink for opts. An empty format is resolved from the path extension.
func New(opts Options, log *zap.Logger) (Sink, error) {
	format, err := ResolveFormat(opts.Format, opts.Path)
	if err != nil {
		return nil, err
	}

	switch format {
	case CSV:
		return NewCSVSink(opts.Path, log), nil
	case SQL:
		db := opts.Database
		if db.Driver == "sqlite" && db.DSN == "" {
			db.DSN = opts.Path
		}
		return NewSQLSink(db, log)
	case JSON:
		return NewJSONSink(opts.DataDir, opts.Query, opts.Strategy, log), nil
	default:
		return NewXLSXSink(opts.Path, log), nil
	}
}
