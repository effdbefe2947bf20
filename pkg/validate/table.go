package validate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// taxonomyColumn is the metadata column appended to grouped tables.
const taxonomyColumn = "taxonomy"

// Table is a tab-delimited feature table. The first header column names
// the feature identifier; the remaining columns are samples. Row order
// is preserved exactly as read.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadTable reads a tab-delimited feature table from path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	t := &Table{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if t.Header == nil {
			t.Header = fields
			continue
		}
		t.Rows = append(t.Rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if t.Header == nil {
		return nil, fmt.Errorf("table %s has no header row", path)
	}
	return t, nil
}

// AddTaxonomy appends a taxonomy column derived from each row's feature
// identifier. Grouped tables carry the full lineage as the identifier,
// delimited by ";"; the derived column rejoins the trimmed lineage
// levels with "; ". Calling it twice is a no-op.
func (t *Table) AddTaxonomy() {
	for _, col := range t.Header {
		if col == taxonomyColumn {
			return
		}
	}
	t.Header = append(t.Header, taxonomyColumn)
	for i, row := range t.Rows {
		levels := strings.Split(row[0], ";")
		for j := range levels {
			levels[j] = strings.TrimSpace(levels[j])
		}
		t.Rows[i] = append(row, strings.Join(levels, "; "))
	}
}

// Write persists the table to path atomically.
func (t *Table) Write(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".table-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}
