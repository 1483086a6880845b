package commands

import (
	"medharvest-backend/lib/util/serviceutil"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var conflictsTenant *string

func init() {
	conflictsTenant = conflictsCmd.Flags().String("tenant", "", "The tenant to inspect.")
	conflictsCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(conflictsCmd)
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts --tenant <name>",
	Short: "Prints a tenant's unresolved record conflicts.",
	Run: func(cmd *cobra.Command, args []string) {
		store, registry, err := openStore()
		if err != nil {
			serviceutil.Fatal("open store", err)
		}
		defer registry.Close()
		defer store.Close()

		tenant, err := store.Resolve(cmd.Context(), *conflictsTenant)
		if err != nil {
			serviceutil.Fatal("resolve tenant", err)
		}

		conflicts, err := tenant.Qry.ListUnresolvedConflicts(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list conflicts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Unit", "Prior Job", "Current Job", "Severity", "Created"})
		for _, conflict := range conflicts {
			t.AppendRow(table.Row{
				conflict.UnitExternalID,
				conflict.PriorJobID,
				conflict.CurrentJobID,
				conflict.Severity,
				time.Unix(conflict.CreatedAt, 0).Format(time.DateOnly),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
