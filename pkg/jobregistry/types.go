package jobregistry

import "time"

// RunState is the lifecycle state of a registered run.
//
// NOTE: These values are persisted in run.json and are part of the stable
// on-disk contract.
type RunState string

const (
	RunStatePlanned   RunState = "planned"
	RunStateGenerated RunState = "generated"
	RunStateValidated RunState = "validated"
	RunStatePartial   RunState = "partial"
	RunStateFailed    RunState = "failed"
)

// RunRecord is the persistent record written to run.json.
//
// The schema is designed for backward-compatible extension (additive fields).
type RunRecord struct {
	RunID        string   `json:"run_id"`
	Name         string   `json:"name,omitempty"`
	State        RunState `json:"state"`
	ManifestPath string   `json:"manifest_path"`
	OutputDir    string   `json:"output_dir,omitempty"`

	// Paths and counts filled in by the generation step.
	ArrayManifestPath string `json:"array_manifest_path,omitempty"`
	ScriptPath        string `json:"script_path,omitempty"`
	MergeScriptPath   string `json:"merge_script_path,omitempty"`
	TotalItems        int    `json:"total_items,omitempty"`
	SlotCount         int    `json:"slot_count,omitempty"`

	// Counts filled in by the validation step.
	Artifacts int `json:"artifacts,omitempty"`
	Errors    int `json:"errors,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}
