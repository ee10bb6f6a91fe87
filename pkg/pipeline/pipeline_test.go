package pipeline

import (
	"math"
	"testing"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/label/compose"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.RootURL != DefaultRootURL {
		t.Errorf("RootURL = %q, want %q", opts.RootURL, DefaultRootURL)
	}
	if opts.Route != DefaultRoute {
		t.Errorf("Route = %q, want %q", opts.Route, DefaultRoute)
	}
	if opts.SymbolDimension != 300 {
		t.Errorf("SymbolDimension = %d, want 300", opts.SymbolDimension)
	}
	if opts.ErrorCorrection != symbol.Low {
		t.Errorf("ErrorCorrection = %v, want low", opts.ErrorCorrection)
	}
	if opts.Sheet != layout.DefaultSheet() {
		t.Errorf("Sheet = %+v, want DefaultSheet", opts.Sheet)
	}
	if opts.TextHeight != compose.DefaultTextHeight || opts.TextPadding != compose.DefaultPadding {
		t.Errorf("text options = %g/%d, want compose defaults", opts.TextHeight, opts.TextPadding)
	}
	if opts.Workers < 1 {
		t.Errorf("Workers = %d, want at least 1", opts.Workers)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLabelHeight(t *testing.T) {
	tests := []struct {
		dim    int
		aspect float64
		want   int
	}{
		{300, 1.25, 375},
		{100, 1.25, 125},
		{101, 1.25, 126},
		{300, 1, 300},
	}
	for _, tt := range tests {
		opts := Options{SymbolDimension: tt.dim, LabelAspect: tt.aspect}
		if got := opts.LabelHeight(); got != tt.want {
			t.Errorf("LabelHeight(%d, %g) = %d, want %d", tt.dim, tt.aspect, got, tt.want)
		}
	}
}

func TestCellSizeDefaults(t *testing.T) {
	opts := DefaultOptions()
	w, h := opts.CellSize()
	if math.Abs(w.Mm()-25.4) > 1e-9 {
		t.Errorf("cell width = %v, want 25.4mm", w)
	}
	if math.Abs(h.Mm()-31.75) > 1e-9 {
		t.Errorf("cell height = %v, want 31.75mm", h)
	}
}

func TestSetSheetDefaultsKeepsMargin(t *testing.T) {
	opts := Options{Sheet: layout.Sheet{Columns: 4}}
	opts.SetSheetDefaults()

	if opts.Sheet.Columns != 4 {
		t.Errorf("Columns = %d, want 4", opts.Sheet.Columns)
	}
	if opts.Sheet.Margin != 0 {
		t.Errorf("Margin = %v, want explicit zero kept", opts.Sheet.Margin)
	}
	def := layout.DefaultSheet()
	if opts.Sheet.PageWidth != def.PageWidth || opts.Sheet.DPI != def.DPI {
		t.Errorf("zero fields not filled: %+v", opts.Sheet)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		code   errors.Code
	}{
		{"bad scheme", func(o *Options) { o.RootURL = "ftp://x" }, errors.ErrCodeInvalidConfig},
		{"query in root", func(o *Options) { o.RootURL = "http://x/?a=1" }, errors.ErrCodeInvalidConfig},
		{"bad route", func(o *Options) { o.Route = "a/b" }, errors.ErrCodeInvalidRoute},
		{"negative dim", func(o *Options) { o.SymbolDimension = -1 }, errors.ErrCodeInvalidConfig},
		{"dim below smallest grid", func(o *Options) { o.SymbolDimension = symbol.MinModules - 1 }, errors.ErrCodeInvalidConfig},
		{"dim ten", func(o *Options) { o.SymbolDimension = 10 }, errors.ErrCodeInvalidConfig},
		{"aspect below one", func(o *Options) { o.LabelAspect = 0.5 }, errors.ErrCodeInvalidConfig},
		{"aspect NaN", func(o *Options) { o.LabelAspect = math.NaN() }, errors.ErrCodeInvalidConfig},
		{"negative text height", func(o *Options) { o.TextHeight = -0.1 }, errors.ErrCodeInvalidConfig},
		{"text height above band", func(o *Options) { o.TextHeight = 1.5 }, errors.ErrCodeInvalidConfig},
		{"negative padding", func(o *Options) { o.TextPadding = -1 }, errors.ErrCodeInvalidConfig},
		{"padding wider than label", func(o *Options) { o.TextPadding = 150 }, errors.ErrCodeInvalidConfig},
		{"bad level", func(o *Options) { o.ErrorCorrection = symbol.Level(9) }, errors.ErrCodeInvalidConfig},
		{"negative workers", func(o *Options) { o.Workers = -2 }, errors.ErrCodeInvalidConfig},
		{"label wider than pitch", func(o *Options) { o.Sheet.PitchX = 10 }, errors.ErrCodeInvalidConfig},
		{"too many columns", func(o *Options) { o.Sheet.Columns = 9 }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error code = %s, want %s (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Route: "container"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if opts != first {
		t.Errorf("second call changed options: %+v vs %+v", opts, first)
	}
	if opts.Route != "container" {
		t.Errorf("Route = %q, want container", opts.Route)
	}
}

func TestLocator(t *testing.T) {
	opts := DefaultOptions()
	opts.RootURL = "https://inv.example.com/"
	opts.Route = "container"
	if got, want := opts.Locator(7), "https://inv.example.com/container/7"; got != want {
		t.Errorf("Locator = %q, want %q", got, want)
	}
}

func TestKeyOptsTrackOptions(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	b.ErrorCorrection = symbol.High
	if a.LabelKeyOpts("n", "f") == b.LabelKeyOpts("n", "f") {
		t.Error("level should change label key options")
	}

	d := DefaultOptions()
	d.TextHeight = 0.5
	if a.LabelKeyOpts("n", "f") == d.LabelKeyOpts("n", "f") {
		t.Error("text height should change label key options")
	}
	e := DefaultOptions()
	e.TextPadding = 0
	if a.LabelKeyOpts("n", "f") == e.LabelKeyOpts("n", "f") {
		t.Error("text padding should change label key options")
	}

	c := DefaultOptions()
	c.Sheet.Columns = 7
	if a.SheetKeyOpts() == c.SheetKeyOpts() {
		t.Error("columns should change sheet key options")
	}
}

func TestFailureError(t *testing.T) {
	cause := errors.New(errors.ErrCodePayloadTooLong, "too long")
	f := Failure{Index: 3, ID: 42, Err: cause}
	if got := f.Error(); got != "record 3 (id 42): PAYLOAD_TOO_LONG: too long" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(f, errors.ErrCodePayloadTooLong) {
		t.Error("Failure should unwrap to its cause")
	}
}
