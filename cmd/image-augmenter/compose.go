package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-augmenter/pkg/affine"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

type composeOutput struct {
	Matrix  [3][3]float64 `json:"matrix"`
	Canvas  types.Canvas  `json:"canvas"`
	Border  string        `json:"border"`
	Summary types.Summary `json:"summary"`
}

func newComposeCmd(a *app) *cobra.Command {
	var (
		width, height int
		opsPath       string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print the composed matrix and final canvas for an op list",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := readOps(cmd, opsPath)
			if err != nil {
				return err
			}
			composer := affine.NewWithConfig(affine.Config{Seed: a.cfg.Pipeline.Seed})
			composer.SetLogger(a.log)

			res, err := composer.Build(types.Canvas{Width: width, Height: height}, ops.PinSeeds(list, a.cfg.Pipeline.Seed))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(composeOutput{
				Matrix:  res.Matrix,
				Canvas:  res.Canvas,
				Border:  res.Border.String(),
				Summary: res.Summary,
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "original image width")
	cmd.Flags().IntVar(&height, "height", 0, "original image height")
	cmd.Flags().StringVarP(&opsPath, "ops", "o", "", "op list file (YAML or JSON, - for stdin)")
	return cmd
}
