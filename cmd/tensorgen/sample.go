package main

import (
	"fmt"
	"math/rand"

	"github.com/leanovate/gopter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tensorcheck/tensorcheck"
	"github.com/tensorcheck/tensorcheck/transformer"
)

type sampleFlags struct {
	count   int
	profile string
}

func newSampleCmd(root *rootFlags, logger func() *zap.Logger) *cobra.Command {
	flags := &sampleFlags{}

	cmd := &cobra.Command{
		Use:       "sample <kind>",
		Short:     "Draw values from a generator and print them",
		Long:      "Draw values from one of the tensorcheck generators and print one per line.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"dtype", "device", "shape", "tensor", "module", "transformer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(flags.profile)
			if err != nil {
				return err
			}
			gen, err := genForKind(args[0], profile)
			if err != nil {
				return err
			}

			log := logger()
			log.Debug("sampling",
				zap.String("kind", args[0]),
				zap.Int64("seed", root.seed),
				zap.Int("count", flags.count),
			)

			params := gopter.DefaultGenParameters()
			params.Rng = rand.New(rand.NewSource(root.seed))

			for i := 0; i < flags.count; i++ {
				result := gen(params)
				value, ok := result.Retrieve()
				if !ok {
					return fmt.Errorf("draw %d failed: generator produced no value (check the profile constraints)", i)
				}
				fmt.Fprintln(cmd.OutOrStdout(), format(value))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.count, "count", "n", 10, "number of values to draw")
	cmd.Flags().StringVarP(&flags.profile, "profile", "p", "", "YAML profile constraining the draws")

	return cmd
}

func genForKind(kind string, profile Profile) (gopter.Gen, error) {
	switch kind {
	case "dtype":
		opts, err := profile.dtypeOptions()
		if err != nil {
			return nil, err
		}
		return tensorcheck.DTypes(opts), nil
	case "device":
		return tensorcheck.Devices(profile.deviceOptions()), nil
	case "shape":
		return tensorcheck.Shapes(profile.shapeOptions()), nil
	case "tensor":
		opts, err := profile.tensorOptions()
		if err != nil {
			return nil, err
		}
		return tensorcheck.Tensors(opts), nil
	case "module":
		return tensorcheck.LinearNetworks(profile.networkOptions()), nil
	case "transformer":
		return transformer.Transformers(profile.transformerOptions()), nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func format(value interface{}) string {
	switch v := value.(type) {
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
