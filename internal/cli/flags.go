package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

// optionFlags are the pipeline options settable from the command line.
// A flag only overrides the config file when it was given explicitly.
type optionFlags struct {
	rootURL string
	route   string
	level   string
	font    string
	dim     int
	aspect  float64
	columns int
	dpi     float64
	margin  float64
	workers int
	refresh bool
}

// register adds label flags, and sheet geometry flags when withSheet is set.
func (f *optionFlags) register(cmd *cobra.Command, withSheet bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.rootURL, "root-url", pipeline.DefaultRootURL, "base URL of the inventory service")
	fs.StringVarP(&f.route, "route", "r", pipeline.DefaultRoute, "entity route: site, container, item, item_location or custom")
	fs.StringVarP(&f.level, "level", "l", pipeline.DefaultErrorCorrection.String(), "error correction: low, medium, quartile, high")
	fs.StringVar(&f.font, "font", "", "TTF/OTF font for names (default: embedded Go Regular)")
	fs.IntVar(&f.dim, "dim", pipeline.DefaultSymbolDimension, "symbol size in pixels")
	fs.Float64Var(&f.aspect, "aspect", pipeline.DefaultLabelAspect, "label height as a multiple of its width")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached labels and re-render")

	if !withSheet {
		return
	}
	def := layout.DefaultSheet()
	fs.IntVar(&f.columns, "columns", def.Columns, "labels per row")
	fs.Float64Var(&f.dpi, "dpi", def.DPI, "print resolution of the labels")
	fs.Float64Var(&f.margin, "margin", def.Margin.Mm(), "page margin in millimetres")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel label workers (default: number of CPUs)")
}

// apply copies explicitly set flags onto opts.
func (f *optionFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	set := cmd.Flags().Changed
	if set("root-url") {
		opts.RootURL = f.rootURL
	}
	if set("route") {
		opts.Route = f.route
	}
	if set("level") {
		level, err := symbol.ParseLevel(f.level)
		if err != nil {
			return err
		}
		opts.ErrorCorrection = level
	}
	if set("font") {
		opts.FontPath = f.font
	}
	if set("dim") {
		opts.SymbolDimension = f.dim
	}
	if set("aspect") {
		opts.LabelAspect = f.aspect
	}
	if set("columns") {
		opts.Sheet.Columns = f.columns
	}
	if set("dpi") {
		opts.Sheet.DPI = f.dpi
	}
	if set("margin") {
		opts.Sheet.Margin = layout.Length(f.margin)
	}
	if set("workers") {
		opts.Workers = f.workers
	}
	opts.Refresh = f.refresh
	return nil
}
