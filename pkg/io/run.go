package io

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kennygrant/sanitize"

	"github.com/geniass/grocery-dealz/pkg/scraper"
)

// Run is a persisted comparison: the query, when it ran and the flattened rows.
type Run struct {
	Query    string
	RunDate  time.Time
	Strategy string
	Columns  []string
	Rows     [][]string
}

type RunWithPath struct {
	Run
	Path string
}

func NewRun(query, strategy string, runDate time.Time, rows []scraper.ComparisonRow) Run {
	r := Run{
		Query:    query,
		RunDate:  runDate,
		Strategy: strategy,
		Columns:  scraper.Columns,
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		r.Rows = append(r.Rows, row.Record())
	}
	return r
}

// RunFileName is the snapshot file name for query, safe for any file system.
func RunFileName(query string) string {
	name := strings.ToLower(sanitize.BaseName(strings.TrimSpace(query)))
	if name == "" {
		name = "query"
	}
	return name + ".json"
}

// WriteRun stores r in dir, replacing an earlier snapshot of the same query.
func WriteRun(dir string, r Run) (string, error) {
	path := filepath.Join(dir, RunFileName(r.Query))
	err := WriteFileAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func LoadRun(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, err
	}
	defer f.Close()

	var r Run
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return Run{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}

// LoadFromDir reads every snapshot under dir, newest first.
func LoadFromDir(dir string) ([]RunWithPath, error) {
	var rs []RunWithPath
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		r, err := LoadRun(path)
		if err != nil {
			return err
		}
		rs = append(rs, RunWithPath{Run: r, Path: path})
		return nil
	})

	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].RunDate.After(rs[j].RunDate)
	})

	if err != nil {
		return rs, err
	}
	return rs, nil
}

// WriteFileAtomic writes to a temporary file next to path and renames it into place,
// so path is either untouched or complete.
func WriteFileAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file owner-only
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
