// Package prep loads batch preparation metadata.
//
// A preparation file is a tab-separated table describing the samples of a
// batch. The contract with upstream is a single uniquely-valued key column
// (by default "run_prefix"); each key identifies one work item. Violations
// are reported before any plan or script is written.
package prep

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/taxongrid/arraygen/pkg/plan"
)

// DefaultKeyColumn is the column that uniquely identifies each sample.
const DefaultKeyColumn = "run_prefix"

// Preparation is a loaded preparation table.
type Preparation struct {
	// Path is the file the table was loaded from.
	Path string

	// Columns are the header names in file order.
	Columns []string

	rows []map[string]string
}

// Load reads a tab-separated preparation file.
//
// The first line is the header; every subsequent non-empty line is one
// sample row. Rows with more fields than the header fail with
// plan.ErrInvalidInput.
func Load(path string) (*Preparation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preparation file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read preparation header: %w", err)
		}
		return nil, fmt.Errorf("%w: preparation file %s is empty", plan.ErrInvalidInput, path)
	}

	header := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")

	p := &Preparation{Path: path, Columns: header}
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields but header has %d columns",
				plan.ErrInvalidInput, lineno, len(fields), len(header))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		p.rows = append(p.rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read preparation file: %w", err)
	}

	return p, nil
}

// Len returns the number of sample rows.
func (p *Preparation) Len() int {
	return len(p.rows)
}

// HasColumn reports whether the table declares the given column.
func (p *Preparation) HasColumn(name string) bool {
	for _, c := range p.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the values of a column in row order.
func (p *Preparation) Column(name string) []string {
	out := make([]string, 0, len(p.rows))
	for _, row := range p.rows {
		out = append(out, row[name])
	}
	return out
}

// Keys returns the values of the unique key column, in row order.
//
// Fails with plan.ErrInvalidInput when the column is missing or when any
// value occurs more than once: downstream output paths are derived from
// these keys, so duplicates would collide.
func (p *Preparation) Keys(column string) ([]string, error) {
	if column == "" {
		column = DefaultKeyColumn
	}
	if !p.HasColumn(column) {
		return nil, fmt.Errorf("%w: preparation is missing the required %s column",
			plan.ErrInvalidInput, column)
	}

	values := p.Column(column)
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: %s values are not unique for each sample (duplicate %q)",
				plan.ErrInvalidInput, column, v)
		}
		seen[v] = struct{}{}
	}
	return values, nil
}
