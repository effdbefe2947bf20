package cmd

import (
	"context"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxongrid/arraygen/internal/config"
	"github.com/taxongrid/arraygen/internal/observability"
	"github.com/taxongrid/arraygen/pkg/dispatch"
	"github.com/taxongrid/arraygen/pkg/jobregistry"
	"github.com/taxongrid/arraygen/pkg/manifest"
	"github.com/taxongrid/arraygen/pkg/merge"
	"github.com/taxongrid/arraygen/pkg/output"
	"github.com/taxongrid/arraygen/pkg/pipeline"
	"github.com/taxongrid/arraygen/pkg/prep"
	"github.com/taxongrid/arraygen/pkg/refdb"
)

// secondaryPartitionKey names the per-gene output partition enabled by a
// database that ships gene coordinates.
const secondaryPartitionKey = "per-gene"

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate array dispatch artifacts from a manifest",
	Long: `Generate the scheduler artifacts for a batch manifest: the ordered
work manifest, the array dispatch script, and the merge script. The run
is registered so its lifecycle can be tracked across commands.

Example:
  arraygen generate --job batch.yaml
  arraygen generate --job batch.yaml --output artifacts.jsonl`,
	RunE: runGenerate,
}

var (
	generateJobPath string
	generateOutput  string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateJobPath, "job", "j", "", "Path to job manifest (required)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Override output destination")

	_ = generateCmd.MarkFlagRequired("job")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	m, err := manifest.Load(generateJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", generateJobPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	if generateOutput != "" {
		m.Output.Destination = generateOutput
	}

	db, err := refdb.Discover(m.Database.IndexPrefix)
	if err != nil {
		observability.CLILogger.Error("Failed to resolve reference database",
			zap.String("index_prefix", m.Database.IndexPrefix),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Reference database not usable", err)
	}

	p, err := prep.Load(m.Prep.Path)
	if err != nil {
		observability.CLILogger.Error("Failed to load preparation",
			zap.String("path", m.Prep.Path),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid preparation file", err)
	}
	keys, err := p.Keys(m.Prep.KeyColumn)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid preparation file", err)
	}

	if err := os.MkdirAll(m.Run.OutputDir, 0o755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot create output directory", err)
	}

	registry := jobregistry.NewRegistry(config.GetConfig().Registry.Dir)
	rec, err := registry.Create(m.Run.Name, generateJobPath, m.Run.OutputDir)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot register run", err)
	}

	writer, cleanup, err := createWriter(m.Output.Destination, rec.RunID, "generate")
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	result, mergePath, err := buildArtifacts(m, db, keys)
	if err != nil {
		if _, ferr := registry.MarkFailed(rec.RunID); ferr != nil {
			observability.CLILogger.Warn("Failed to mark run failed", zap.Error(ferr))
		}
		_ = writer.WriteError(ctx, &output.ErrorRecord{
			Code:    output.ErrCodeInvalidInput,
			Message: err.Error(),
		})
		return exitError(foundry.ExitInvalidArgument, "Generation failed", err)
	}

	if _, err := registry.MarkGenerated(rec.RunID, jobregistry.GenerationInfo{
		ArrayManifestPath: result.ManifestPath,
		ScriptPath:        result.ScriptPath,
		MergeScriptPath:   mergePath,
		TotalItems:        result.Plan.TotalItems,
		SlotCount:         result.Plan.SlotCount,
	}); err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot update run registry", err)
	}

	if err := writer.WritePlan(ctx, &output.PlanRecord{
		Name:         m.Run.Name,
		TotalItems:   result.Plan.TotalItems,
		Capacity:     result.Plan.Capacity,
		ItemsPerSlot: result.Plan.ItemsPerSlot,
		SlotCount:    result.Plan.SlotCount,
		ManifestPath: result.ManifestPath,
		ScriptPath:   result.ScriptPath,
	}); err != nil {
		observability.CLILogger.Warn("Failed to write plan record", zap.Error(err))
	}

	writeGenerateSummary(ctx, writer, start)

	observability.CLILogger.Info("Generation completed",
		zap.String("run_id", rec.RunID),
		zap.String("name", m.Run.Name),
		zap.Int("total_items", result.Plan.TotalItems),
		zap.Int("slot_count", result.Plan.SlotCount),
		zap.String("script", result.ScriptPath),
		zap.String("merge_script", mergePath))

	return nil
}

// buildArtifacts renders the work manifest, the dispatch script, and the
// merge script for a loaded batch manifest.
func buildArtifacts(m *manifest.Manifest, db refdb.Database, keys []string) (*dispatch.Result, string, error) {
	items := dispatch.ItemsFromKeys(m.Run.RunDir, m.Run.OutputDir, m.Command.OutputExtension, keys)

	template := m.Command.Template
	if template == "" {
		template = pipeline.CommandTemplate(db, m.Resources.Parallelism, m.Partitions.Keys)
	}

	result, err := dispatch.Build(dispatch.Config{
		Name:               m.Run.Name,
		Parallelism:        m.Resources.Parallelism,
		Memory:             m.Resources.Memory,
		Walltime:           m.Resources.Walltime,
		MaxConcurrentSlots: m.Resources.MaxConcurrentSlots,
		Capacity:           m.Resources.Capacity,
		Environment:        m.Run.Environment,
		CommandTemplate:    template,
		OutputDir:          m.Run.OutputDir,
		ContactEmail:       m.Run.Contact,
	}, items)
	if err != nil {
		return nil, "", err
	}

	secondary := ""
	if db.HasGeneCoordinates() {
		secondary = secondaryPartitionKey
	}

	mergePath, _, err := merge.Build(merge.Config{
		Name:          m.Run.Name,
		OutputDir:     m.Run.OutputDir,
		PrepPath:      m.Prep.Path,
		Environment:   m.Run.Environment,
		Memory:        m.Merge.Memory,
		Walltime:      m.Merge.Walltime,
		ContactEmail:  m.Run.Contact,
		PartitionKeys: m.Partitions.Keys,
		SecondaryKey:  secondary,
		// The compress step writes <output>.xz next to each item output.
		ArchiveGlob:   "*." + m.Command.OutputExtension + ".xz",
		FinishCommand: m.Merge.FinishCommand,
	})
	if err != nil {
		return nil, "", err
	}

	return result, mergePath, nil
}

func writeGenerateSummary(ctx context.Context, writer output.Writer, start time.Time) {
	elapsed := time.Since(start)
	if err := writer.WriteSummary(ctx, &output.SummaryRecord{
		Success:       true,
		Duration:      elapsed,
		DurationHuman: elapsed.Round(time.Millisecond).String(),
	}); err != nil {
		observability.CLILogger.Warn("Failed to write summary record", zap.Error(err))
	}
}
