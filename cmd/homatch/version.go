package main

import (
	"fmt"

	"github.com/gitrdm/homatch/pkg/matching"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engine version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := matching.GetVersionInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "homatch %s (%s)\n", info.Version, info.GoVersion)
	},
}
