// Package dispatch renders the slot dispatch artifacts for a batch run:
// the order-significant work manifest and the array job script each slot
// executes.
//
// The generated script is self-contained: a slot recovers its work items
// from its array index and the manifest alone, with no cross-slot
// communication. Within a slot, items run under a fail-fast scope so a
// failing item aborts the slot's remaining work; missing outputs are
// reconciled later by pkg/validate.
package dispatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/taxongrid/arraygen/pkg/plan"
	"github.com/taxongrid/arraygen/pkg/script"
)

// ErrConfig indicates an invalid dispatch configuration. Nothing is
// written when validation fails with this error.
var ErrConfig = errors.New("invalid dispatch configuration")

// DefaultCapacity is the maximum number of indexable array slots the
// target scheduler supports.
const DefaultCapacity = 1024

// arrayIndexVar is the scheduler's 1-based array index variable.
const arrayIndexVar = "${PBS_ARRAYID}"

// walltimePattern matches HH:MM:SS-shaped wall-time limits. The hour
// field may exceed two digits for long runs.
var walltimePattern = regexp.MustCompile(`^\d+:\d\d:\d\d$`)

// Config parameterizes the dispatch script builder.
//
// Resource values (memory, wall time) are opaque strings forwarded
// verbatim to the scheduler, which owns their enforcement.
type Config struct {
	// Name is the run name; output file names derive from it.
	Name string

	// Parallelism is the per-slot processor count.
	Parallelism int

	// Memory is the per-slot memory ceiling (e.g. "64g").
	Memory string

	// Walltime is the per-slot wall-time ceiling, HH:MM:SS.
	Walltime string

	// MaxConcurrentSlots caps how many slots the scheduler runs at once.
	MaxConcurrentSlots int

	// Capacity is the scheduler's array size ceiling. Defaults to
	// DefaultCapacity when zero.
	Capacity int

	// Environment is the environment setup line executed before work.
	Environment string

	// CommandTemplate is the per-item command with {infile}/{outfile}
	// placeholders.
	CommandTemplate string

	// OutputDir receives the manifest, script, and all slot outputs.
	OutputDir string

	// ContactEmail is the scheduler notification address.
	ContactEmail string
}

// ApplyDefaults fills in default values for optional fields.
func (c *Config) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
}

// Validate checks structural configuration requirements.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: run name is required", ErrConfig)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrConfig, c.Parallelism)
	}
	if !walltimePattern.MatchString(c.Walltime) {
		return fmt.Errorf("%w: walltime %q does not match HH:MM:SS", ErrConfig, c.Walltime)
	}
	if _, err := CompileTemplate(c.CommandTemplate); err != nil {
		return err
	}
	return nil
}

// ManifestPath returns the fixed manifest location for this run.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.OutputDir, c.Name+".array-details")
}

// ScriptPath returns the dispatch script location for this run.
func (c *Config) ScriptPath() string {
	return filepath.Join(c.OutputDir, c.Name+".qsub")
}

// Result describes the artifacts a Build produced.
type Result struct {
	// Plan is the partition plan the script encodes.
	Plan plan.JobPlan

	// ManifestPath is the persisted work manifest.
	ManifestPath string

	// ScriptPath is the rendered dispatch script.
	ScriptPath string
}

// Build validates the configuration, computes the partition plan, writes
// the manifest, and renders the dispatch script.
//
// Validation failures abort before anything is written.
func Build(cfg Config, items []WorkItem) (*Result, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no work items to dispatch", plan.ErrInvalidInput)
	}

	jobPlan, err := plan.Plan(len(items), cfg.Capacity)
	if err != nil {
		return nil, err
	}

	manifest := NewManifest(items)
	if err := manifest.Write(cfg.ManifestPath()); err != nil {
		return nil, err
	}

	s, err := BuildScript(cfg, jobPlan)
	if err != nil {
		return nil, err
	}
	if err := script.WriteFile(cfg.ScriptPath(), s); err != nil {
		return nil, err
	}

	return &Result{
		Plan:         jobPlan,
		ManifestPath: cfg.ManifestPath(),
		ScriptPath:   cfg.ScriptPath(),
	}, nil
}

// BuildScript renders the slot dispatch script for an already-computed
// partition plan.
//
// Statement order: scheduler directives, working directory change,
// environment setup, start timestamp, host identification, then one
// guarded block per local offset in descending offset order, and a final
// end timestamp.
func BuildScript(cfg Config, jobPlan plan.JobPlan) (*script.Script, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := CompileTemplate(cfg.CommandTemplate)
	if err != nil {
		return nil, err
	}

	s := script.New().
		Directive("-M", cfg.ContactEmail).
		Directive("-N", cfg.Name).
		Directivef("-l", "nodes=1:ppn=%d", cfg.Parallelism).
		Directivef("-l", "walltime=%s", cfg.Walltime).
		Directivef("-l", "mem=%s", cfg.Memory).
		Directivef("-o", "%s/%s_%s.log", cfg.OutputDir, cfg.Name, arrayIndexVar).
		Directivef("-e", "%s/%s_%s.err", cfg.OutputDir, cfg.Name, arrayIndexVar).
		Directivef("-t", "1-%d%%%d", jobPlan.SlotCount, cfg.MaxConcurrentSlots).
		Commandf("cd %s", cfg.OutputDir).
		Command(cfg.Environment).
		Command("date").
		Command("hostname").
		Commandf("offset=%s", arrayIndexVar)

	// Scale the array index when slots own more than one manifest line:
	// slot k owns lines (k-1)*perSlot+1 .. k*perSlot.
	if jobPlan.ItemsPerSlot > 1 {
		s.Commandf("offset=$(( $offset * %d ))", jobPlan.ItemsPerSlot)
	}

	// Descending offset order so line numbers ascend within the slot.
	// The over-range guard exits the slot cleanly: past the final item
	// every remaining offset is padding, never real work.
	for i := jobPlan.ItemsPerSlot - 1; i >= 0; i-- {
		s.Commandf("step=$(( $offset - %d ))", i)
		s.Commandf("if [[ $step -gt %d ]]; then exit 0; fi", jobPlan.TotalItems)
		s.Commandf("args%d=$(head -n $step %s | tail -n 1)", i, cfg.ManifestPath())
		s.Commandf("infile%d=$(echo -e $args%d | awk '{ print $1 }')", i, i)
		s.Commandf("outfile%d=$(echo -e $args%d | awk '{ print $2 }')", i, i)

		// Fail-fast only around the tool invocation: the surrounding
		// bookkeeping may legitimately return nonzero.
		s.Command("set -e")
		s.Command(tmpl.Apply(fmt.Sprintf("$infile%d", i), fmt.Sprintf("$outfile%d", i)))
		s.Command("set +e")
	}

	s.Command("date")
	return s, nil
}
