// Package merge plans the second-phase fan-out/join stage of a batch run.
//
// After all slots finish, per-item partial results are reduced into one
// final table per output partition key. Each partition gets its own merge
// task selecting inputs by glob pattern; the generated script launches
// every task as a concurrent background process and joins on a single
// barrier before packaging and notification.
package merge

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/taxongrid/arraygen/pkg/script"
)

// ErrConfig indicates an invalid merge configuration. Nothing is written
// when validation fails with this error.
var ErrConfig = errors.New("invalid merge configuration")

// MaxTasks is the exclusive upper bound on merge tasks per plan. The merge
// node requests one processor per task, so an unbounded plan would demand
// an unschedulable allocation.
const MaxTasks = 32

// Task is one partition-key merge: a reduction over the per-item partial
// results selected by Glob.
type Task struct {
	// PartitionKey is the output category this task reduces
	// (a taxonomic rank, or the secondary per-gene partition).
	PartitionKey string

	// Glob selects the task's partial-result inputs, relative to the
	// run output directory.
	Glob string

	// RenameOutput marks the single task whose merged output is renamed
	// to the run's canonical result name. Exactly one task per plan
	// carries it; see assignRename.
	RenameOutput bool
}

// Config parameterizes the merge script builder.
type Config struct {
	// Name is the run name; the merge job is registered as merge-<name>.
	Name string

	// OutputDir is the run output directory the tasks operate in.
	OutputDir string

	// PrepPath is the preparation file forwarded to the merge tool.
	PrepPath string

	// Environment is the environment setup line.
	Environment string

	// Memory is the merge node memory ceiling (e.g. "48g").
	Memory string

	// Walltime is the merge node wall-time ceiling, HH:MM:SS.
	Walltime string

	// ContactEmail is the scheduler notification address.
	ContactEmail string

	// PartitionKeys are the ordinary output partition keys, in order.
	PartitionKeys []string

	// SecondaryKey is the optional secondary partition key, set only
	// when a secondary input source (gene coordinates) was configured.
	SecondaryKey string

	// ArchiveGlob selects per-item intermediates for archival
	// packaging after the join barrier (e.g. "*.sam.xz").
	ArchiveGlob string

	// FinishCommand runs last, after packaging, to notify completion.
	FinishCommand string
}

// ordinaryGlob selects one rank's partial tables across all per-item
// classification directories.
func ordinaryGlob(key string) string {
	return fmt.Sprintf("*.woltka-taxa/%s.biom", key)
}

// secondaryGlob selects the per-gene partial result directories.
const secondaryGlob = "*.woltka-per-gene"

// BuildPlan derives the merge tasks for the configured partition keys.
//
// One task per ordinary key, in key order, plus one trailing task for the
// secondary key when present. Fails with ErrConfig when the plan is empty,
// reaches MaxTasks, or any derived glob is invalid.
func BuildPlan(keys []string, secondaryKey string) ([]Task, error) {
	if len(keys) == 0 && secondaryKey == "" {
		return nil, fmt.Errorf("%w: no partition keys to merge", ErrConfig)
	}

	tasks := make([]Task, 0, len(keys)+1)
	for _, key := range keys {
		tasks = append(tasks, Task{PartitionKey: key, Glob: ordinaryGlob(key)})
	}
	if secondaryKey != "" {
		tasks = append(tasks, Task{PartitionKey: secondaryKey, Glob: secondaryGlob})
	}

	if len(tasks) >= MaxTasks {
		return nil, fmt.Errorf("%w: %d merge tasks, limit is %d", ErrConfig, len(tasks), MaxTasks)
	}
	for _, t := range tasks {
		if !doublestar.ValidatePattern(t.Glob) {
			return nil, fmt.Errorf("%w: invalid merge glob %q", ErrConfig, t.Glob)
		}
	}

	return assignRename(tasks), nil
}

// assignRename marks exactly one task's output for renaming to the run's
// canonical result name.
//
// The secondary task receives the flag when a secondary partition exists
// (it is always appended last); otherwise the last ordinary task does.
// The ordinary-key fallback reproduces the upstream tooling's behavior
// and is not known to be a deliberate policy; it is isolated here so a
// confirmed requirement only has to change this function.
func assignRename(tasks []Task) []Task {
	if len(tasks) == 0 {
		return tasks
	}
	tasks[len(tasks)-1].RenameOutput = true
	return tasks
}

// Command renders the merge tool invocation for one task.
func (t Task) Command(prepPath, outputDir string) string {
	cmd := fmt.Sprintf("woltka_merge --prep %s --base %s --name %s --glob %q",
		prepPath, outputDir, t.PartitionKey, t.Glob)
	if t.RenameOutput {
		cmd += " --rename"
	}
	return cmd
}

// Build validates the configuration, derives the merge plan, and renders
// the merge script to <outputDir>/<name>.merge.qsub.
func Build(cfg Config) (string, []Task, error) {
	tasks, err := BuildPlan(cfg.PartitionKeys, cfg.SecondaryKey)
	if err != nil {
		return "", nil, err
	}

	s, err := BuildScript(cfg, tasks)
	if err != nil {
		return "", nil, err
	}

	path := filepath.Join(cfg.OutputDir, cfg.Name+".merge.qsub")
	if err := script.WriteFile(path, s); err != nil {
		return "", nil, err
	}
	return path, tasks, nil
}

// BuildScript renders the merge script for an already-derived plan.
//
// Every task launches as a background process; a single join barrier
// blocks until all complete, then the per-item intermediates are packaged
// and the finish command runs.
func BuildScript(cfg Config, tasks []Task) (*script.Script, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty merge plan", ErrConfig)
	}

	s := script.New().
		Directive("-M", cfg.ContactEmail).
		Directivef("-N", "merge-%s", cfg.Name).
		Directivef("-l", "nodes=1:ppn=%d", len(tasks)).
		Directivef("-l", "walltime=%s", cfg.Walltime).
		Directivef("-l", "mem=%s", cfg.Memory).
		Directivef("-o", "%s/merge-%s.log", cfg.OutputDir, cfg.Name).
		Directivef("-e", "%s/merge-%s.err", cfg.OutputDir, cfg.Name).
		Commandf("cd %s", cfg.OutputDir).
		Command(cfg.Environment).
		Command("date").
		Command("hostname").
		Command("set -e")

	for _, t := range tasks {
		s.Background(t.Command(cfg.PrepPath, cfg.OutputDir))
	}
	s.Barrier()

	if cfg.ArchiveGlob != "" {
		s.Commandf("cd %s; tar -cvf alignment.tar %s", cfg.OutputDir, cfg.ArchiveGlob)
	}
	if cfg.FinishCommand != "" {
		s.Command(cfg.FinishCommand)
	}
	s.Command("date")

	return s, nil
}
