package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxongrid/arraygen/internal/observability"
	"github.com/taxongrid/arraygen/pkg/manifest"
	"github.com/taxongrid/arraygen/pkg/plan"
	"github.com/taxongrid/arraygen/pkg/prep"
	"github.com/taxongrid/arraygen/pkg/refdb"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the array partition plan for a manifest",
	Long: `Compute and display the job-array partition plan for a batch manifest
without writing any artifacts.

Example:
  arraygen plan --job batch.yaml
  arraygen plan --job batch.yaml --capacity 512`,
	RunE: runPlan,
}

var (
	planJobPath  string
	planCapacity int
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planJobPath, "job", "j", "", "Path to job manifest (required)")
	planCmd.Flags().IntVar(&planCapacity, "capacity", 0, "Override the scheduler array capacity")

	_ = planCmd.MarkFlagRequired("job")
}

func runPlan(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(planJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", planJobPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	if planCapacity > 0 {
		m.Resources.Capacity = planCapacity
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

	jobPlan, err := plan.Plan(len(keys), m.Resources.Capacity)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Cannot partition batch", err)
	}

	showPlan(m, db, jobPlan)
	return nil
}

// showPlan displays the partition plan without writing artifacts.
func showPlan(m *manifest.Manifest, db refdb.Database, jobPlan plan.JobPlan) {
	fmt.Println("=== Array Plan ===")
	fmt.Println()
	fmt.Printf("Run:          %s\n", m.Run.Name)
	fmt.Printf("Database:     %s\n", db.IndexPrefix)
	fmt.Printf("Taxonomy:     %s\n", db.Taxonomy)
	if db.HasGeneCoordinates() {
		fmt.Printf("Coordinates:  %s\n", db.GeneCoordinates)
	}
	fmt.Println()
	fmt.Printf("Items:        %d\n", jobPlan.TotalItems)
	fmt.Printf("Capacity:     %d\n", jobPlan.Capacity)
	fmt.Printf("Slots:        %d\n", jobPlan.SlotCount)
	fmt.Printf("Per slot:     %d\n", jobPlan.ItemsPerSlot)
	fmt.Println()
	fmt.Printf("Partitions:   %s\n", strings.Join(m.Partitions.Keys, ", "))
	fmt.Printf("Resources:    ppn=%d mem=%s walltime=%s\n",
		m.Resources.Parallelism, m.Resources.Memory, m.Resources.Walltime)
	fmt.Printf("Concurrency:  %d slots\n", m.Resources.MaxConcurrentSlots)
	fmt.Printf("Output dir:   %s\n", m.Run.OutputDir)
	fmt.Println()
	fmt.Println("Manifest validated successfully. Run generate to write artifacts.")
}
