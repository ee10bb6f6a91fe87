package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/io"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/sheet/sink"
)

// maxListedFailures bounds the failures printed to the terminal; the full
// list goes to the --failures report.
const maxListedFailures = 10

// sheetOpts holds the output flags of the sheet command.
type sheetOpts struct {
	output   string // PDF path
	preview  string // directory for per-page PNG previews
	failures string // CSV report of skipped records
	strict   bool   // fail when any record was skipped
}

// sheetCommand creates the command that renders a record file as a PDF sheet.
func (c *CLI) sheetCommand() *cobra.Command {
	var (
		flags optionFlags
		opts  sheetOpts
	)

	cmd := &cobra.Command{
		Use:   "sheet RECORDS",
		Short: "Render records (JSON or CSV) as a printable PDF label sheet",
		Example: `  labelsheet sheet items.json
  labelsheet sheet containers.csv --route container -o containers.pdf
  cat items.json | labelsheet sheet - --preview previews/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSettings()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &s.opts); err != nil {
				return err
			}
			return c.runSheet(cmd, args[0], s, opts)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "labels.pdf", "output PDF file")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "also write PNG previews of each page to this directory")
	cmd.Flags().StringVar(&opts.failures, "failures", "", "write a CSV report of skipped records")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error if any record is skipped")

	return cmd
}

func (c *CLI) runSheet(cmd *cobra.Command, path string, s *settings, opts sheetOpts) error {
	ctx := cmd.Context()
	if err := errors.ValidatePath(opts.output); err != nil {
		return err
	}

	records, err := io.ImportRecords(path)
	if err != nil {
		return err
	}
	c.Logger.Debug("read records", "path", path, "count", len(records))

	runner, err := c.newRunner(ctx, s)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, len(records))
	restore := trackProgress(spinner)
	spinner.Start()
	res, err := runner.Sheet(ctx, records, s.opts)
	spinner.Stop()
	restore()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d labels", res.Stats.Labels))

	if err := os.WriteFile(opts.output, res.PDF, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Sheet for %s labels", StyleNumber.Render(fmt.Sprint(res.Stats.Labels)))
	printSheetStats(res)
	printFile(opts.output)

	if opts.preview != "" {
		paths, err := writePreviews(opts.preview, res)
		if err != nil {
			return err
		}
		for _, p := range paths {
			printFile(p)
		}
	}

	if len(res.Failures) == 0 {
		return nil
	}
	printFailures(res.Failures)
	if opts.failures != "" {
		if err := writeFailureReport(opts.failures, res.Failures); err != nil {
			return err
		}
		printFile(opts.failures)
	}
	if opts.strict {
		return fmt.Errorf("%d of %d records skipped", len(res.Failures), res.Stats.Records)
	}
	return nil
}

// writePreviews writes page-N.png for every page of the sheet.
func writePreviews(dir string, res *pipeline.SheetResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(res.Document.Pages))
	for i, page := range res.Document.Pages {
		data, err := sink.RenderPagePNG(page)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, fmt.Sprintf("page-%d.png", i+1))
		if err := os.WriteFile(p, data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFailureReport(path string, failures []pipeline.Failure) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := io.WriteFailures(&buf, failures); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func printFailures(failures []pipeline.Failure) {
	printWarning("%d records skipped", len(failures))
	for i, f := range failures {
		if i == maxListedFailures {
			printDetail("... and %d more", len(failures)-maxListedFailures)
			break
		}
		printDetail("#%d (id %d): %s", f.Index, f.ID, errors.UserMessage(f.Err))
	}
}
