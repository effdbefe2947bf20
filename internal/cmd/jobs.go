package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/taxongrid/arraygen/internal/config"
	"github.com/taxongrid/arraygen/pkg/jobregistry"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect registered runs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered runs, newest first",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	store := jobregistry.NewStore(config.GetConfig().Registry.Dir)
	runs, err := store.List()
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot read run registry", err)
	}
	if len(runs) == 0 {
		fmt.Println("No registered runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tNAME\tSTATE\tITEMS\tSLOTS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID, r.Name, r.State, r.TotalItems, r.SlotCount,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	store := jobregistry.NewStore(config.GetConfig().Registry.Dir)
	rec, err := store.Get(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return exitError(foundry.ExitInvalidArgument, "Unknown run", fmt.Errorf("no run %s", args[0]))
		}
		return exitError(foundry.ExitFileWriteError, "Cannot read run registry", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
