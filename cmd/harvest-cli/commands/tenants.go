package commands

import (
	"medharvest-backend/lib/util/serviceutil"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tenantsCmd)
}

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Prints the tenants known to the registry.",
	Run: func(cmd *cobra.Command, args []string) {
		store, registry, err := openStore()
		if err != nil {
			serviceutil.Fatal("open store", err)
		}
		defer registry.Close()
		defer store.Close()

		tenants, err := store.ListTenants(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list tenants", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Name", "Extractions", "Units Seen"})
		for _, tenant := range tenants {
			t.AppendRow(table.Row{
				tenant.Key, tenant.RawName, tenant.ExtractionCount, tenant.UnitCount,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
