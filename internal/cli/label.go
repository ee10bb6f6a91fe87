package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// labelCommand creates the command that renders one label as PNG.
func (c *CLI) labelCommand() *cobra.Command {
	var (
		flags  optionFlags
		rec    pipeline.Record
		output string
	)

	cmd := &cobra.Command{
		Use:   "label --id ID [--name NAME]",
		Short: "Render a single label as PNG",
		Example: `  labelsheet label --id 42 --name "M3 Bolt"
  labelsheet label --id 7 --name "Shelf A" --route container -o shelf-a.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSettings()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &s.opts); err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("label-%d.png", rec.ID)
			}
			if err := errors.ValidatePath(output); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Label(cmd.Context(), rec, s.opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, res.PNG, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Label for %s", StyleHighlight.Render(res.Payload))
			printFile(output)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().Int64Var(&rec.ID, "id", 0, "record id")
	cmd.Flags().StringVarP(&rec.Name, "name", "n", "", "display name printed under the code")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: label-<id>.png)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
