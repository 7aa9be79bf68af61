package io

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniass/grocery-dealz/pkg/scraper"
)

func testRows() []scraper.ComparisonRow {
	price := 40.0
	return []scraper.ComparisonRow{{
		Amazon: scraper.Listing{
			Name:     "Tomato 1kg",
			Price:    &price,
			Quantity: scraper.Quantity{Value: 1000, Unit: scraper.Grams, Known: true},
			URL:      "https://www.amazon.in/dp/B07AAA0001",
			SourceID: "B07AAA0001",
		},
		Grace: scraper.Listing{
			Name: "Tomato Hybrid",
			URL:  scraper.Unknown,
		},
	}}
}

func TestWriteAndLoadRuns(t *testing.T) {
	dir := t.TempDir()

	older := NewRun("tomato", "cross_join", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), testRows())
	newer := NewRun("onion", "cross_join", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), testRows())

	path, err := WriteRun(dir, older)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tomato.json"), path)

	_, err = WriteRun(dir, newer)
	require.NoError(t, err)

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	runs, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "onion", runs[0].Query)
	assert.Equal(t, "tomato", runs[1].Query)
	assert.Equal(t, scraper.Columns, runs[1].Columns)
	assert.Equal(t, []string{
		"Tomato 1kg", "40", "1000", "https://www.amazon.in/dp/B07AAA0001", "B07AAA0001",
		"Tomato Hybrid", "", "unknown", "unknown",
	}, runs[1].Rows[0])
}

func TestLoadFromMissingDir(t *testing.T) {
	_, err := LoadFromDir(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunFileName(t *testing.T) {
	assert.Equal(t, "tomato.json", RunFileName(" Tomato "))
	assert.Equal(t, "query.json", RunFileName(""))

	name := RunFileName("../../etc/passwd")
	assert.False(t, strings.Contains(name, "/"))
	assert.True(t, strings.HasSuffix(name, ".json"))
}

func TestWriteFileAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteFileAtomic(path, func(f *os.File) error {
		f.WriteString("partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomicIsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product_comparison.csv")

	require.NoError(t, WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("a,b\n")
		return err
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}
