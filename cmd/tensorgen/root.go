package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tensorcheck/tensorcheck"
)

type rootFlags struct {
	seed    int64
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:           "tensorgen",
		Short:         "Sample tensorcheck generators",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = buildLogger(flags.verbose)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().Int64Var(&flags.seed, "seed", tensorcheck.DefaultSeed, "seed for the draw sequence")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newSampleCmd(flags, func() *zap.Logger { return logger }))

	return cmd
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
