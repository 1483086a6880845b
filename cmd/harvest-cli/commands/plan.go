package commands

import (
	"bufio"
	"fmt"
	"medharvest-backend/lib/blobstore"
	"medharvest-backend/lib/util/serviceutil"
	"medharvest-backend/services/resume"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	planTenant *string
	planFilter *string
	planStart  *string
	planStop   *string
	planMode   *string
	planUnit   *string
	planUnits  *string
)

func init() {
	planTenant = planCmd.Flags().String("tenant", "", "The tenant the run belongs to.")
	planFilter = planCmd.Flags().String("filter", "all", "The content filter of the run.")
	planStart = planCmd.Flags().String("start", "", "The start date (YYYY-MM-DD) of the run.")
	planStop = planCmd.Flags().String("stop", "", "The stop date (YYYY-MM-DD) of the run.")
	planMode = planCmd.Flags().String("mode", "ALL_UNITS", "The extraction mode of the run.")
	planUnit = planCmd.Flags().String("unit", "", "The unit identifier, for SINGLE_UNIT runs.")
	planUnits = planCmd.Flags().String("units-file", "-", "A file listing current unit names, one per line. '-' reads stdin.")
	planCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(planCmd)
}

func readUnits(path string) ([]string, error) {
	input := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		input = f
	}

	var units []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if resume.NormalizeName(line) == "" {
			continue
		}
		units = append(units, line)
	}
	return units, scanner.Err()
}

var planCmd = &cobra.Command{
	Use:   "plan --tenant <name> [--start <date> --stop <date>] [--units-file <path>]",
	Short: "Compares the current unit list against the last matching run and plans a resume.",
	Run: func(cmd *cobra.Command, args []string) {
		units, err := readUnits(*planUnits)
		if err != nil {
			serviceutil.Fatal("read unit list", err)
		}

		store, registry, err := openStore()
		if err != nil {
			serviceutil.Fatal("open store", err)
		}
		defer registry.Close()
		defer store.Close()

		blobs, err := blobstore.NewLocalStore(*blobsDir)
		if err != nil {
			serviceutil.Fatal("open blob store", err)
		}

		fingerprint := resume.JobFingerprint(
			*planTenant, *planFilter, *planStart, *planStop, *planMode, *planUnit,
		)
		previous, err := resume.NewCheckpointStore(store, blobs).
			Load(cmd.Context(), fingerprint)
		if err != nil {
			serviceutil.Fatal("load checkpoint", err)
		}
		if previous == nil {
			fmt.Println("no previous run matches these parameters; everything is new")
		}

		plan := resume.BuildPlan(units, previous)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Unit", "Action"})
		for _, unit := range plan.AlreadySuccessful {
			t.AppendRow(table.Row{unit, "skip"})
		}
		for _, unit := range plan.ToProcess {
			t.AppendRow(table.Row{unit, "process"})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf(
			"total=%d new=%d failed=%d succeeded=%d failed_fraction=%.2f\n",
			plan.Stats.Total, plan.Stats.New, plan.Stats.Failed,
			plan.Stats.Succeeded, plan.Stats.FailedFraction,
		)
		if plan.Stats.ResumeRecommended {
			fmt.Println("resume recommended: too many units failed last time")
		}
		for _, match := range plan.Stats.NearMatches {
			fmt.Printf(
				"warning: %q looks like renamed %q (similarity %.2f)\n",
				match.Current, match.Previous, match.Similarity,
			)
		}
	},
}
