package commands

import (
	"fmt"
	"medharvest-backend/services/resume"

	"github.com/spf13/cobra"
)

var (
	fpTenant *string
	fpFilter *string
	fpStart  *string
	fpStop   *string
	fpMode   *string
	fpUnit   *string
)

func init() {
	fpTenant = fingerprintCmd.Flags().String("tenant", "", "The tenant the run belongs to.")
	fpFilter = fingerprintCmd.Flags().String("filter", "all", "The content filter of the run.")
	fpStart = fingerprintCmd.Flags().String("start", "", "The start date (YYYY-MM-DD) of the run.")
	fpStop = fingerprintCmd.Flags().String("stop", "", "The stop date (YYYY-MM-DD) of the run.")
	fpMode = fingerprintCmd.Flags().String("mode", "ALL_UNITS", "The extraction mode of the run.")
	fpUnit = fingerprintCmd.Flags().String("unit", "", "The unit identifier, for SINGLE_UNIT runs.")
	fingerprintCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(fingerprintCmd)
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint --tenant <name> [flags]",
	Short: "Prints the checkpoint fingerprint of a set of run parameters.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(resume.JobFingerprint(
			*fpTenant, *fpFilter, *fpStart, *fpStop, *fpMode, *fpUnit,
		))
	},
}
