// Package output provides JSONL output for run results.
//
// Output is structured as typed record envelopes containing plans,
// artifacts, errors, and summaries. Each line is a self-contained JSON
// object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: arraygen.<type>.v<version>
const (
	// TypePlan identifies job plan records.
	TypePlan = "arraygen.plan.v1"

	// TypeArtifact identifies produced artifact records.
	TypeArtifact = "arraygen.artifact.v1"

	// TypeError identifies error records.
	TypeError = "arraygen.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "arraygen.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field. The type field determines how to
// interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "arraygen.plan.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// RunID is the correlation ID for this run.
	RunID string `json:"run_id"`

	// Stage identifies the pipeline stage (e.g., "generate", "validate").
	Stage string `json:"stage"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// PlanRecord is the data payload for job plans.
//
// This describes how a run's work items were partitioned across array
// slots, plus the files the generation step wrote.
type PlanRecord struct {
	// Name is the run name the files are derived from.
	Name string `json:"name"`

	// TotalItems is the number of work items in the manifest.
	TotalItems int `json:"total_items"`

	// Capacity is the slot ceiling the plan was computed against.
	Capacity int `json:"capacity"`

	// ItemsPerSlot is the number of items each slot processes.
	ItemsPerSlot int `json:"items_per_slot"`

	// SlotCount is the number of array slots requested.
	SlotCount int `json:"slot_count"`

	// ManifestPath is where the work item manifest was written.
	ManifestPath string `json:"manifest_path,omitempty"`

	// ScriptPath is where the array script was written.
	ScriptPath string `json:"script_path,omitempty"`
}

// ArtifactRecord is the data payload for produced artifacts.
type ArtifactRecord struct {
	// Label is the human-facing artifact name.
	Label string `json:"label"`

	// Kind is the artifact kind (e.g., "BIOM").
	Kind string `json:"kind"`

	// Files lists the artifact's member files.
	Files []ArtifactFileRecord `json:"files"`
}

// ArtifactFileRecord is a single file within an artifact.
type ArtifactFileRecord struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// ErrorRecord is the data payload for errors.
//
// Errors are emitted as records rather than aborting the run report,
// allowing partial results when some outputs are missing.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Key is the partition key related to this error, if applicable.
	Key string `json:"key,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord.
const (
	// ErrCodeInvalidInput indicates caller-supplied data was rejected.
	ErrCodeInvalidInput = "INVALID_INPUT"

	// ErrCodeConfig indicates a configuration problem.
	ErrCodeConfig = "CONFIG"

	// ErrCodeMissingArtifact indicates an expected output was not found.
	ErrCodeMissingArtifact = "MISSING_ARTIFACT"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "INTERNAL"
)

// SummaryRecord is the data payload for final summaries.
//
// A summary record is emitted at the end of a command with aggregate
// results.
type SummaryRecord struct {
	// Success is false when any expected output was missing.
	Success bool `json:"success"`

	// Artifacts is the count of artifacts reported.
	Artifacts int `json:"artifacts"`

	// Errors is the count of errors encountered.
	Errors int `json:"errors"`

	// Duration is the total command duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
