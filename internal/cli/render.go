package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tspart/pkg/pipeline"
)

// renderCommand creates the render command for drawing an existing tour.
func (c *CLI) renderCommand() *cobra.Command {
	var draw drawFlags

	cmd := &cobra.Command{
		Use:   "render <input> <tour>",
		Short: "Draw a solver's tour through a bitmap or point list",
		Long: `Draw a solver's tour through a bitmap or point list.

The tour may be a Concorde solution (.sol), a TSPLIB tour (.tour) or a linkern
edge list. It must visit every point of the input exactly once.

Examples:
  tspart render portrait.pbm portrait.sol
  tspart render stipple.pts stipple.tour --closure open -m 1000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			opts := cfg.Convert
			opts.Input = args[0]
			draw.apply(cmd, &opts)
			opts.Logger = c.Logger

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			result, err := runner.RenderTour(cmd.Context(), args[1], opts)
			if err != nil {
				return err
			}

			printSuccess("Drawing complete")
			printFile(result.Output)
			for _, format := range opts.Formats {
				if path, ok := result.Previews[format]; ok {
					printFile(path)
				}
			}
			printDetail("%d points · length %.1f", result.Stats.PointCount, result.Stats.TourLength)
			return nil
		},
	}

	draw.register(cmd)

	return cmd
}
