package dispatch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkItem is one unit of slot work: an input and its derived output path.
//
// Uniqueness of the underlying key is an upstream contract (see pkg/prep);
// the builder derives paths from it but never generates new keys.
type WorkItem struct {
	InputPath  string
	OutputPath string
}

// ItemsFromKeys derives work items from unique preparation keys.
//
// The input is the key joined to the run directory; the output is the
// key's base name under the output directory with the configured
// extension. Distinct keys therefore yield disjoint output paths.
func ItemsFromKeys(runDir, outputDir, outputExtension string, keys []string) []WorkItem {
	items := make([]WorkItem, 0, len(keys))
	for _, key := range keys {
		in := filepath.Join(runDir, key)
		out := filepath.Join(outputDir, filepath.Base(in)) + "." + outputExtension
		items = append(items, WorkItem{InputPath: in, OutputPath: out})
	}
	return items
}

// Manifest is the ordered, 1-indexed item table persisted before dispatch.
//
// Line order is load-bearing: slot scripts recover their items by line
// number arithmetic, so the manifest must never be re-sorted after it is
// written. The manifest is read-only once dispatched and safe for
// unsynchronized concurrent reads by any number of slots.
type Manifest struct {
	items []WorkItem
}

// NewManifest builds a manifest preserving the given item order.
func NewManifest(items []WorkItem) *Manifest {
	return &Manifest{items: items}
}

// Len returns the number of manifest lines.
func (m *Manifest) Len() int {
	return len(m.items)
}

// Line returns the item at the given 1-based line number.
func (m *Manifest) Line(n int) (WorkItem, error) {
	if n < 1 || n > len(m.items) {
		return WorkItem{}, fmt.Errorf("manifest line %d out of range [1,%d]", n, len(m.items))
	}
	return m.items[n-1], nil
}

// Items returns the manifest items in line order.
func (m *Manifest) Items() []WorkItem {
	return m.items
}

// Write persists the manifest as tab-separated input/output pairs.
//
// Format: one newline-terminated `<input>\t<output>` line per item.
func (m *Manifest) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, item := range m.items {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", item.InputPath, item.OutputPath); err != nil {
			_ = f.Close()
			return fmt.Errorf("write manifest line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a persisted manifest, preserving line order.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	var items []WorkItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if line == "" {
			continue
		}
		in, out, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("manifest line %d: expected tab-separated pair", lineno)
		}
		items = append(items, WorkItem{InputPath: in, OutputPath: out})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return NewManifest(items), nil
}
