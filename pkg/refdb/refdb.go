// Package refdb locates reference database companion files.
//
// A reference database is addressed by its aligner index prefix; companion
// files sit next to the index and share the prefix. The taxonomy table
// (.tax) is required for classification. Gene coordinates (.coords) are
// optional: their presence is what enables the secondary per-gene result
// partition downstream.
package refdb

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrTaxonomyNotFound indicates no .tax file exists for the prefix.
var ErrTaxonomyNotFound = errors.New("reference taxonomy not found")

// Database describes a resolved reference database.
type Database struct {
	// IndexPrefix is the aligner index path prefix.
	IndexPrefix string

	// Taxonomy is the lineage table path. Always set.
	Taxonomy string

	// GeneCoordinates is the per-gene coordinates path, or "" when the
	// database ships without one.
	GeneCoordinates string
}

// HasGeneCoordinates reports whether per-gene classification is available.
func (d Database) HasGeneCoordinates() bool {
	return d.GeneCoordinates != ""
}

// Discover resolves the companion files for a database index prefix.
//
// All files matching <prefix>* are considered; the first .tax match is the
// taxonomy and the first .coords match, if any, the gene coordinates.
func Discover(indexPrefix string) (Database, error) {
	matches, err := filepath.Glob(indexPrefix + "*")
	if err != nil {
		return Database{}, fmt.Errorf("scan database files for %s: %w", indexPrefix, err)
	}

	db := Database{IndexPrefix: indexPrefix}
	for _, m := range matches {
		switch {
		case strings.HasSuffix(m, ".tax") && db.Taxonomy == "":
			db.Taxonomy = m
		case strings.HasSuffix(m, ".coords") && db.GeneCoordinates == "":
			db.GeneCoordinates = m
		}
	}

	if db.Taxonomy == "" {
		return Database{}, fmt.Errorf("%w: no .tax file matches %s*", ErrTaxonomyNotFound, indexPrefix)
	}
	return db, nil
}
