package validate

import "strings"

// Artifact kinds. Result tables and bundles are opaque to this package
// beyond existence and row-identifier structure.
const (
	// KindTable is a merged feature table deliverable.
	KindTable = "BIOM"
)

// File types within an artifact.
const (
	FileTypeTable   = "biom"
	FileTypeArchive = "log"
)

// ArtifactFile is one file of a deliverable artifact.
type ArtifactFile struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Artifact is a named, typed bundle of output files reported to the
// external collaborator as a deliverable result.
type Artifact struct {
	Label string         `json:"label"`
	Kind  string         `json:"kind"`
	Files []ArtifactFile `json:"files"`
}

// Report is the reconciliation of expected outputs against what a run
// actually produced.
//
// Artifacts and Errors preserve check order. A report never carries an
// exception for a missing output; absence is data, not failure of the
// validator itself.
type Report struct {
	// Success is true iff no expected artifact was missing.
	Success bool `json:"success"`

	// Artifacts are the deliverables found, in check order.
	Artifacts []Artifact `json:"artifacts"`

	// Errors are the missing-artifact findings, in check order.
	Errors []string `json:"errors,omitempty"`
}

// ErrorText returns the human-readable error block, one finding per line.
func (r *Report) ErrorText() string {
	return strings.Join(r.Errors, "\n")
}
