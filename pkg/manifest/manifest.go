// Package manifest provides loading and validation of arraygen job manifests.
//
// A job manifest is a YAML or JSON file that configures all aspects of a
// run: input location, scheduler resources, the per-item command, the merge
// step, and result reporting.
//
// Manifests are validated against a JSON Schema to ensure correctness before
// anything is written. The schema enforces strict typing and disallows
// unknown properties.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	run:
//	  name: proj-42
//	  run_dir: /seq/run42
//	  output_dir: /work/proj-42
//	  environment: "source ~/.bash_profile; source activate woltka"
//	database:
//	  index_prefix: /dbs/wol/WoLmin
//	prep:
//	  path: /work/proj-42/prep.tsv
//	resources:
//	  memory: 64g
//	  walltime: "10:00:00"
package manifest

// Manifest represents a validated job manifest.
//
// A manifest configures all aspects of a run. Required fields are Version,
// Run, Database, and Prep. The remaining sections are optional with
// sensible defaults.
type Manifest struct {
	// Schema is an optional JSON Schema reference for editor support.
	// Example: "https://schemas.taxongrid.dev/arraygen/v1.0.0/job-manifest.schema.json"
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Run identifies the run and its directories.
	Run RunConfig `json:"run" yaml:"run"`

	// Database points at the reference database.
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Prep points at the sample preparation file.
	Prep PrepConfig `json:"prep" yaml:"prep"`

	// Resources configures scheduler resources for array slots (optional).
	Resources ResourcesConfig `json:"resources,omitempty" yaml:"resources,omitempty"`

	// Merge configures the merge step (optional).
	Merge MergeConfig `json:"merge,omitempty" yaml:"merge,omitempty"`

	// Command overrides the per-item command (optional).
	Command CommandConfig `json:"command,omitempty" yaml:"command,omitempty"`

	// Partitions configures the grouping keys (optional).
	Partitions PartitionsConfig `json:"partitions,omitempty" yaml:"partitions,omitempty"`

	// Output configures machine-readable output (optional).
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`

	// Notify configures the completion report endpoint (optional).
	Notify *NotifyConfig `json:"notify,omitempty" yaml:"notify,omitempty"`

	// Upload configures result upload to object storage (optional).
	Upload *UploadConfig `json:"upload,omitempty" yaml:"upload,omitempty"`
}

// RunConfig identifies the run and its directories.
type RunConfig struct {
	// Name is the run name. Generated files are derived from it.
	Name string `json:"name" yaml:"name"`

	// RunDir is the directory holding per-sample input files.
	RunDir string `json:"run_dir" yaml:"run_dir"`

	// OutputDir is where generated files and results are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Environment is a shell fragment sourced at the top of each script.
	// Example: "source ~/.bash_profile; source activate woltka". Optional.
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// Contact receives scheduler abort notifications and is named in
	// missing-artifact findings. Optional.
	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// DatabaseConfig points at the reference database.
type DatabaseConfig struct {
	// IndexPrefix is the path prefix of the aligner index files.
	// The taxonomy file (<prefix>*.tax) is discovered from it; a gene
	// coordinates file (<prefix>*.coords) enables the secondary step.
	IndexPrefix string `json:"index_prefix" yaml:"index_prefix"`
}

// PrepConfig points at the sample preparation file.
type PrepConfig struct {
	// Path is the tab-delimited preparation file.
	Path string `json:"path" yaml:"path"`

	// KeyColumn is the column holding the per-sample file prefix.
	// Default: "run_prefix".
	KeyColumn string `json:"key_column,omitempty" yaml:"key_column,omitempty"`
}

// ResourcesConfig configures scheduler resources for array slots.
//
// All fields are optional with sensible defaults applied during loading.
type ResourcesConfig struct {
	// Memory is the per-slot memory request (e.g., "64g").
	// Default: "64g".
	Memory string `json:"memory,omitempty" yaml:"memory,omitempty"`

	// Walltime is the per-slot walltime as H+:MM:SS.
	// Default: "10:00:00".
	Walltime string `json:"walltime,omitempty" yaml:"walltime,omitempty"`

	// Parallelism is the processors requested per slot.
	// Range: 1-64. Default: 8.
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`

	// MaxConcurrentSlots caps how many slots run at once.
	// Default: 8.
	MaxConcurrentSlots int `json:"max_concurrent_slots,omitempty" yaml:"max_concurrent_slots,omitempty"`

	// Capacity is the scheduler's addressable slot ceiling.
	// Default: 1024.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// MergeConfig configures the merge step.
//
// All fields are optional with sensible defaults applied during loading.
type MergeConfig struct {
	// Memory is the merge job memory request. Default: "48g".
	Memory string `json:"memory,omitempty" yaml:"memory,omitempty"`

	// Walltime is the merge job walltime. Default: "4:00:00".
	Walltime string `json:"walltime,omitempty" yaml:"walltime,omitempty"`

	// FinishCommand runs after the merge barrier completes. Optional.
	FinishCommand string `json:"finish_command,omitempty" yaml:"finish_command,omitempty"`
}

// CommandConfig overrides the per-item command.
type CommandConfig struct {
	// Template is the per-item command with {infile} and {outfile}
	// placeholders. When empty, a default pipeline is composed from the
	// reference database.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// OutputExtension is appended to each item's output path. The
	// pipeline's compress step adds a further .xz to it.
	// Default: "sam".
	OutputExtension string `json:"output_extension,omitempty" yaml:"output_extension,omitempty"`
}

// PartitionsConfig configures the grouping keys.
type PartitionsConfig struct {
	// Keys are the grouping keys, in merge and report order.
	// Default: [phylum, genus, species, free, none].
	Keys []string `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// OutputConfig configures machine-readable output.
//
// All fields are optional with sensible defaults applied during loading.
type OutputConfig struct {
	// Destination is the JSONL output target.
	// Values: "stdout" or "file:/path/to/output.jsonl"
	// Default: "stdout".
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// NotifyConfig configures the completion report endpoint.
type NotifyConfig struct {
	// URL receives the validation report as a JSON POST.
	URL string `json:"url" yaml:"url"`

	// TimeoutSeconds bounds the report request. Default: 30.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// UploadConfig configures result upload to object storage.
type UploadConfig struct {
	// Bucket is the destination bucket.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is prepended to uploaded object keys. Optional.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the bucket region. Optional.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint is a custom endpoint URL for S3-compatible storage. Optional.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Profile is the credential profile name. Optional.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// RateLimit is the maximum upload requests per second (0 = unlimited).
	// Default: 0.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// Default values for optional configuration fields.
const (
	// DefaultVersion is the current manifest schema version.
	DefaultVersion = "1.0"

	// DefaultMemory is the default per-slot memory request.
	DefaultMemory = "64g"

	// DefaultWalltime is the default per-slot walltime.
	DefaultWalltime = "10:00:00"

	// DefaultParallelism is the default processors per slot.
	DefaultParallelism = 8

	// DefaultMaxConcurrentSlots is the default concurrent slot cap.
	DefaultMaxConcurrentSlots = 8

	// DefaultCapacity is the default scheduler slot ceiling.
	DefaultCapacity = 1024

	// DefaultMergeMemory is the default merge job memory request.
	DefaultMergeMemory = "48g"

	// DefaultMergeWalltime is the default merge job walltime.
	DefaultMergeWalltime = "4:00:00"

	// DefaultKeyColumn is the default preparation key column.
	DefaultKeyColumn = "run_prefix"

	// DefaultOutputExtension is the default per-item output extension.
	DefaultOutputExtension = "sam"

	// DefaultDestination is the default JSONL output destination.
	DefaultDestination = "stdout"

	// DefaultNotifyTimeoutSeconds bounds the completion report request.
	DefaultNotifyTimeoutSeconds = 30
)

// DefaultPartitionKeys are the grouping keys used when the manifest does
// not override them.
func DefaultPartitionKeys() []string {
	return []string{"phylum", "genus", "species", "free", "none"}
}

// ApplyDefaults fills in default values for optional fields.
//
// This should be called after loading and validating the manifest to ensure
// all optional fields have sensible values.
func (m *Manifest) ApplyDefaults() {
	// Resource defaults
	if m.Resources.Memory == "" {
		m.Resources.Memory = DefaultMemory
	}
	if m.Resources.Walltime == "" {
		m.Resources.Walltime = DefaultWalltime
	}
	if m.Resources.Parallelism == 0 {
		m.Resources.Parallelism = DefaultParallelism
	}
	if m.Resources.MaxConcurrentSlots == 0 {
		m.Resources.MaxConcurrentSlots = DefaultMaxConcurrentSlots
	}
	if m.Resources.Capacity == 0 {
		m.Resources.Capacity = DefaultCapacity
	}

	// Merge defaults
	if m.Merge.Memory == "" {
		m.Merge.Memory = DefaultMergeMemory
	}
	if m.Merge.Walltime == "" {
		m.Merge.Walltime = DefaultMergeWalltime
	}

	// Prep and command defaults
	if m.Prep.KeyColumn == "" {
		m.Prep.KeyColumn = DefaultKeyColumn
	}
	if m.Command.OutputExtension == "" {
		m.Command.OutputExtension = DefaultOutputExtension
	}

	// Partition defaults
	if len(m.Partitions.Keys) == 0 {
		m.Partitions.Keys = DefaultPartitionKeys()
	}

	// Output defaults
	if m.Output.Destination == "" {
		m.Output.Destination = DefaultDestination
	}

	// Notify defaults
	if m.Notify != nil && m.Notify.TimeoutSeconds == 0 {
		m.Notify.TimeoutSeconds = DefaultNotifyTimeoutSeconds
	}
}
