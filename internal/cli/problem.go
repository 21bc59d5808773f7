package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspart/pkg/pipeline"
)

// problemCommand creates the problem command that only writes the TSPLIB file.
func (c *CLI) problemCommand() *cobra.Command {
	var (
		output string
		scale  float64
	)

	cmd := &cobra.Command{
		Use:   "problem <input>",
		Short: "Write the TSPLIB problem for a bitmap or point list",
		Long: `Write the TSPLIB problem for a bitmap or point list.

The problem file can be solved by hand with linkern or concorde; the solver's
output is then drawn with 'tspart render'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".tsp"
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			problem, err := runner.Problem(cmd.Context(), input, output, scale)
			if err != nil {
				return err
			}

			solution := strings.TrimSuffix(output, filepath.Ext(output)) + ".sol"
			printSuccess("Problem written")
			printFile(output)
			printDetail("%d points · scale %g", problem.Len(), problem.Scale)
			printNewline()
			printNextStep("Solve", fmt.Sprintf("linkern -o %s %s", solution, output))
			printNextStep("Draw", fmt.Sprintf("tspart render %s %s", input, solution))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.tsp)")
	cmd.Flags().Float64Var(&scale, "scale", 0, "coordinate scale factor (0 = automatic)")

	return cmd
}
