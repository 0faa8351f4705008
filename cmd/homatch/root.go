package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool

	logger *zap.Logger
	appFs  afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:           "homatch",
	Short:         "homatch - second-order pattern matching over expression trees",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every search step")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(versionCmd)
}
