// Package pipeline turns entity records into labels and label sheets.
//
// This package is the single entry point used by the CLI and by library
// callers. It wires the stages together with caching and instrumentation:
//
//  1. Encode: build the locator URL for each record and encode it as a symbol
//  2. Compose: merge the symbol and the record name into one label bitmap
//  3. Layout: tile the labels on pages at fixed physical positions
//  4. Emit: serialize the pages as a PDF document
//
// Encode and compose run per record on a bounded worker pool. A record whose
// locator does not fit the symbol is reported as a Failure and skipped; the
// rest of the sheet is still produced in input order.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(cache.NewNullCache(), nil, nil, logger)
//	if err != nil {
//	    return err // font could not be loaded
//	}
//	opts := pipeline.DefaultOptions()
//	opts.RootURL = "https://inventory.example.com"
//	res, err := runner.Sheet(ctx, records, opts)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("labels.pdf", res.PDF, 0644)
package pipeline

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/label/compose"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRootURL is the base of every locator when none is configured.
	DefaultRootURL = "http://localhost:8000"

	// DefaultRoute is the entity route labels point at.
	DefaultRoute = "item"

	// DefaultSymbolDimension is the symbol side length in pixels.
	DefaultSymbolDimension = 300

	// DefaultLabelAspect is label height over width. The band below the
	// symbol holds the name.
	DefaultLabelAspect = 1.25

	// DefaultErrorCorrection is the symbol error-correction level.
	DefaultErrorCorrection = symbol.Low
)

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for label and sheet generation.
type Options struct {
	// Locator options
	RootURL string `json:"root_url"`
	Route   string `json:"route"`

	// Label options
	SymbolDimension int          `json:"symbol_dimension"`
	LabelAspect     float64      `json:"label_aspect"`
	ErrorCorrection symbol.Level `json:"error_correction"`
	FontPath        string       `json:"font,omitempty"`

	// Name text: font size as a fraction of the band below the symbol,
	// and horizontal padding in pixels on each side.
	TextHeight  float64 `json:"text_height"`
	TextPadding int     `json:"text_padding"`

	// Sheet geometry
	Sheet layout.Sheet `json:"sheet"`

	// Runtime options
	Workers int  `json:"workers,omitempty"`
	Refresh bool `json:"refresh,omitempty"` // bypass cache reads

	validated bool
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	o := Options{}
	o.SetLabelDefaults()
	o.SetSheetDefaults()
	return o
}

// Record is one entity to label: its numeric id and display name.
type Record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Failure reports a record that produced no label.
type Failure struct {
	Index int   // position of the record in the input
	ID    int64 // record id
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("record %d (id %d): %v", f.Index, f.ID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// LabelResult is one rendered label.
type LabelResult struct {
	Index   int
	Record  Record
	Payload string
	Key     string
	Image   *image.Gray
	PNG     []byte
	Cached  bool
}

// SheetResult contains the outputs of a sheet run.
type SheetResult struct {
	// RunID identifies this run in logs.
	RunID string

	// Document is the laid-out sheet.
	Document layout.Document

	// PDF is the emitted document.
	PDF []byte

	// Failures lists records that were skipped, in input order.
	Failures []Failure

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	Records    int
	Labels     int
	Pages      int
	LabelTime  time.Duration
	LayoutTime time.Duration
	EmitTime   time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	LabelHits int  // labels served from cache
	SheetHit  bool // whether the PDF came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks every option.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLabelDefaults()
	o.SetSheetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLabelDefaults fills unset locator and label options.
func (o *Options) SetLabelDefaults() {
	if o.RootURL == "" {
		o.RootURL = DefaultRootURL
	}
	if o.Route == "" {
		o.Route = DefaultRoute
	}
	if o.SymbolDimension == 0 {
		o.SymbolDimension = DefaultSymbolDimension
	}
	if o.LabelAspect == 0 {
		o.LabelAspect = DefaultLabelAspect
	}
	// Zero padding is valid, so it is only defaulted together with an
	// unset text height.
	if o.TextHeight == 0 {
		o.TextHeight = compose.DefaultTextHeight
		if o.TextPadding == 0 {
			o.TextPadding = compose.DefaultPadding
		}
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
}

// SetSheetDefaults fills unset sheet geometry. A zero Sheet becomes
// layout.DefaultSheet; otherwise only zero fields are filled, and the
// margin is kept as given since zero is a valid margin.
func (o *Options) SetSheetDefaults() {
	def := layout.DefaultSheet()
	if o.Sheet == (layout.Sheet{}) {
		o.Sheet = def
		return
	}
	if o.Sheet.PageWidth == 0 {
		o.Sheet.PageWidth = def.PageWidth
	}
	if o.Sheet.PageHeight == 0 {
		o.Sheet.PageHeight = def.PageHeight
	}
	if o.Sheet.PitchX == 0 {
		o.Sheet.PitchX = def.PitchX
	}
	if o.Sheet.PitchY == 0 {
		o.Sheet.PitchY = def.PitchY
	}
	if o.Sheet.Columns == 0 {
		o.Sheet.Columns = def.Columns
	}
	if o.Sheet.DPI == 0 {
		o.Sheet.DPI = def.DPI
	}
}

// Validate checks options without applying defaults.
func (o *Options) Validate() error {
	if err := errors.ValidateRootURL(o.RootURL); err != nil {
		return err
	}
	if err := errors.ValidateRoute(o.Route); err != nil {
		return err
	}
	if o.SymbolDimension < symbol.MinModules {
		return errors.New(errors.ErrCodeInvalidConfig, "symbol_dimension must be at least %d pixels, got %d", symbol.MinModules, o.SymbolDimension)
	}
	if o.LabelAspect < 1 || math.IsNaN(o.LabelAspect) || math.IsInf(o.LabelAspect, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "label_aspect must be at least 1, got %g", o.LabelAspect)
	}
	if o.TextHeight <= 0 || o.TextHeight > 1 || math.IsNaN(o.TextHeight) {
		return errors.New(errors.ErrCodeInvalidConfig, "text_height must be in (0, 1], got %g", o.TextHeight)
	}
	if o.TextPadding < 0 || 2*o.TextPadding >= o.SymbolDimension {
		return errors.New(errors.ErrCodeInvalidConfig, "text_padding must be between 0 and half the symbol dimension, got %d", o.TextPadding)
	}
	if o.ErrorCorrection < symbol.Low || o.ErrorCorrection > symbol.High {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown error_correction level %d", int(o.ErrorCorrection))
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must not be negative, got %d", o.Workers)
	}
	if o.FontPath != "" {
		if err := errors.ValidatePath(o.FontPath); err != nil {
			return err
		}
	}
	return o.Sheet.Validate(o.CellSize())
}

// LabelHeight returns the label height in pixels.
func (o *Options) LabelHeight() int {
	return int(math.Round(float64(o.SymbolDimension) * o.LabelAspect))
}

// CellSize returns the physical label size on the sheet.
func (o *Options) CellSize() (layout.Length, layout.Length) {
	return layout.CellSize(o.SymbolDimension, o.LabelHeight(), o.Sheet.DPI)
}

// Locator returns the payload encoded for a record id.
func (o *Options) Locator(id int64) string {
	return symbol.Locator(o.RootURL, o.Route, id)
}

// LabelKeyOpts returns cache key options for one label.
func (o *Options) LabelKeyOpts(name, fontHash string) cache.LabelKeyOpts {
	return cache.LabelKeyOpts{
		Name:       name,
		Level:      o.ErrorCorrection.String(),
		SymbolDim:  o.SymbolDimension,
		Width:      o.SymbolDimension,
		Height:     o.LabelHeight(),
		TextHeight: o.TextHeight,
		Padding:    o.TextPadding,
		FontHash:   fontHash,
	}
}

// ComposeOptions returns the compositor options for the name text.
func (o *Options) ComposeOptions() []compose.Option {
	return []compose.Option{
		compose.WithTextHeight(o.TextHeight),
		compose.WithPadding(o.TextPadding),
	}
}

// SheetKeyOpts returns cache key options for sheet emission.
func (o *Options) SheetKeyOpts() cache.SheetKeyOpts {
	return cache.SheetKeyOpts{
		PageWidth:  o.Sheet.PageWidth.Mm(),
		PageHeight: o.Sheet.PageHeight.Mm(),
		PitchX:     o.Sheet.PitchX.Mm(),
		PitchY:     o.Sheet.PitchY.Mm(),
		Margin:     o.Sheet.Margin.Mm(),
		Columns:    o.Sheet.Columns,
		DPI:        o.Sheet.DPI,
	}
}
