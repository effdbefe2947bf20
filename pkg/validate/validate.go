// Package validate reconciles the outputs of a completed run against the
// artifacts the run was configured to produce. Every check runs to
// completion so a single report carries all missing deliverables at once.
package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Per-partition keys that do not map to a grouped table of their own.
// "free" feeds the primary aggregate and "none" the catch-all table.
const (
	KeyUngrouped = "free"
	KeyCatchAll  = "none"
)

// Config selects which outputs Run expects under OutputDir.
type Config struct {
	// OutputDir is the directory the run wrote its merged tables into.
	OutputDir string

	// PartitionKeys are the configured grouping keys, in report order.
	// Keys equal to KeyUngrouped or KeyCatchAll are handled by the
	// aggregate and catch-all checks, not the per-key loop.
	PartitionKeys []string

	// HasSecondary expects the secondary-partition table. It is set when
	// the reference database carried gene coordinates.
	HasSecondary bool

	// SupportContact is included in every missing-artifact finding.
	SupportContact string
}

// Run checks each expected artifact in order and returns the combined
// report. It returns a non-nil error only when an existing table cannot
// be read or rewritten; a missing artifact is a report finding.
func Run(cfg Config) (*Report, error) {
	rep := &Report{}

	freeTable := filepath.Join(cfg.OutputDir, KeyUngrouped+".biom")
	archive := filepath.Join(cfg.OutputDir, "alignment.tar")
	if fileExists(freeTable) && fileExists(archive) {
		rep.Artifacts = append(rep.Artifacts, Artifact{
			Label: "Alignment Profile",
			Kind:  KindTable,
			Files: []ArtifactFile{
				{Path: freeTable, Type: FileTypeTable},
				{Path: archive, Type: FileTypeArchive},
			},
		})
	} else {
		rep.Errors = append(rep.Errors, fmt.Sprintf(
			`Missing files from the "Alignment Profile"; please contact %s for more information`,
			cfg.SupportContact))
	}

	for _, key := range cfg.PartitionKeys {
		if key == KeyUngrouped || key == KeyCatchAll {
			continue
		}
		path := filepath.Join(cfg.OutputDir, key+".biom")
		if !fileExists(path) {
			rep.Errors = append(rep.Errors, fmt.Sprintf(
				"Table %s was not created, please contact %s for more information",
				key, cfg.SupportContact))
			continue
		}
		if err := normalizeTable(path); err != nil {
			return nil, fmt.Errorf("normalize %s table: %w", key, err)
		}
		rep.Artifacts = append(rep.Artifacts, Artifact{
			Label: "Taxonomic Predictions - " + key,
			Kind:  KindTable,
			Files: []ArtifactFile{{Path: path, Type: FileTypeTable}},
		})
	}

	catchAll := filepath.Join(cfg.OutputDir, KeyCatchAll+".biom")
	if fileExists(catchAll) {
		rep.Artifacts = append(rep.Artifacts, Artifact{
			Label: "Per genome Predictions",
			Kind:  KindTable,
			Files: []ArtifactFile{{Path: catchAll, Type: FileTypeTable}},
		})
	} else {
		rep.Errors = append(rep.Errors, fmt.Sprintf(
			"Table %s was not created, please contact %s for more information",
			KeyCatchAll, cfg.SupportContact))
	}

	if cfg.HasSecondary {
		perGene := filepath.Join(cfg.OutputDir, "per-gene.biom")
		if fileExists(perGene) {
			rep.Artifacts = append(rep.Artifacts, Artifact{
				Label: "Per gene Predictions",
				Kind:  KindTable,
				Files: []ArtifactFile{{Path: perGene, Type: FileTypeTable}},
			})
		} else {
			rep.Errors = append(rep.Errors, fmt.Sprintf(
				"Table per-gene was not created, please contact %s for more information",
				cfg.SupportContact))
		}
	}

	rep.Success = len(rep.Errors) == 0
	return rep, nil
}

// TablesPresent counts the merged tables sitting under dir. Callers use
// it for progress logging; Run does not depend on the count.
func TablesPresent(dir string) (int, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.biom"))
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	return len(matches), nil
}

// normalizeTable rewrites a grouped table with its derived taxonomy
// column so downstream consumers do not re-split row identifiers.
func normalizeTable(path string) error {
	t, err := LoadTable(path)
	if err != nil {
		return err
	}
	t.AddTaxonomy()
	return t.Write(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
