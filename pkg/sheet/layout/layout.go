package layout

import (
	"image"
	"math"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// epsilon absorbs floating-point error in millimetre arithmetic.
const epsilon = 1e-9

// Sheet describes the page and grid geometry.
type Sheet struct {
	PageWidth  Length  `json:"page_width" toml:"page_width"`
	PageHeight Length  `json:"page_height" toml:"page_height"`
	PitchX     Length  `json:"pitch_x" toml:"pitch_x"`
	PitchY     Length  `json:"pitch_y" toml:"pitch_y"`
	Margin     Length  `json:"margin" toml:"margin"`
	Columns    int     `json:"columns" toml:"columns"`
	DPI        float64 `json:"dpi" toml:"dpi"`
}

// DefaultSheet returns the A4 sheet of 1-inch labels: 8 columns, a 0.76 mm
// margin, 26.16 mm column pitch and 33.11 mm row pitch at 300 DPI.
func DefaultSheet() Sheet {
	return Sheet{
		PageWidth:  210,
		PageHeight: 297,
		PitchX:     25.4 + 0.76,
		PitchY:     32 + 1.11,
		Margin:     0.76,
		Columns:    8,
		DPI:        300,
	}
}

// Placement is one label positioned on a page.
type Placement struct {
	// Label is the raster placed on the page.
	Label *image.Gray

	// X and Y locate the bottom-left corner of the label.
	X, Y Length

	// Width and Height are the printed size of the label.
	Width, Height Length

	// Index is the position of the label in the input sequence.
	Index int
}

// Page is one output page.
type Page struct {
	Width, Height Length
	Placements    []Placement
}

// Document is an ordered list of pages.
type Document struct {
	Pages []Page

	// DPI is the resolution at which label pixels map to page lengths.
	DPI float64
}

// PlacementCount returns the number of placements across all pages.
func (d Document) PlacementCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Placements)
	}
	return n
}

// Placements returns every placement in reading order.
func (d Document) Placements() []Placement {
	out := make([]Placement, 0, d.PlacementCount())
	for _, p := range d.Pages {
		out = append(out, p.Placements...)
	}
	return out
}

// Engine places labels of one cell size on pages of one sheet.
type Engine struct {
	sheet        Sheet
	cellW, cellH Length
	rows         int
}

// New validates the sheet against a cellW×cellH label and returns an
// engine for it. Geometry that would overlap labels or push them off the
// page is rejected with INVALID_CONFIG.
func New(s Sheet, cellW, cellH Length) (*Engine, error) {
	if err := s.Validate(cellW, cellH); err != nil {
		return nil, err
	}
	top := s.PageHeight - s.Margin - cellH
	rows := int(math.Floor(float64((top-s.Margin)/s.PitchY)+epsilon)) + 1
	return &Engine{sheet: s, cellW: cellW, cellH: cellH, rows: rows}, nil
}

// Validate checks the sheet for a cellW×cellH label.
func (s Sheet) Validate(cellW, cellH Length) error {
	switch {
	case s.PageWidth <= 0 || s.PageHeight <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "page size must be positive, got %s x %s", s.PageWidth, s.PageHeight)
	case s.PitchX <= 0 || s.PitchY <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "cell pitch must be positive, got %s x %s", s.PitchX, s.PitchY)
	case s.Margin < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "margin cannot be negative, got %s", s.Margin)
	case s.Columns <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "columns must be positive, got %d", s.Columns)
	case s.DPI <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "dpi must be positive, got %g", s.DPI)
	case cellW <= 0 || cellH <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "cell size must be positive, got %s x %s", cellW, cellH)
	case s.PitchX < cellW-epsilon:
		return errors.New(errors.ErrCodeInvalidConfig, "column pitch %s is smaller than label width %s", s.PitchX, cellW)
	case s.PitchY < cellH-epsilon:
		return errors.New(errors.ErrCodeInvalidConfig, "row pitch %s is smaller than label height %s", s.PitchY, cellH)
	}

	if s.PageHeight-s.Margin-cellH < s.Margin-epsilon {
		return errors.New(errors.ErrCodeInvalidConfig, "page height %s cannot hold one row of %s labels within %s margins", s.PageHeight, cellH, s.Margin)
	}
	right := s.Margin + Length(s.Columns-1)*s.PitchX + cellW
	if right > s.PageWidth+epsilon {
		return errors.New(errors.ErrCodeInvalidConfig, "%d columns end at %s, past the page width %s", s.Columns, right, s.PageWidth)
	}
	return nil
}

// Sheet returns the engine's sheet geometry.
func (e *Engine) Sheet() Sheet { return e.sheet }

// RowsPerPage returns how many rows fit on one page.
func (e *Engine) RowsPerPage() int { return e.rows }

// PerPage returns how many labels fit on one page.
func (e *Engine) PerPage() int { return e.rows * e.sheet.Columns }

// Position returns the page number and bottom-left corner of the n-th
// label (zero-based).
func (e *Engine) Position(n int) (page int, x, y Length) {
	per := e.PerPage()
	page = n / per
	slot := n % per
	row, col := slot/e.sheet.Columns, slot%e.sheet.Columns

	top := e.sheet.PageHeight - e.sheet.Margin - e.cellH
	x = e.sheet.Margin + Length(col)*e.sheet.PitchX
	y = top - Length(row)*e.sheet.PitchY
	return page, x, y
}

// fits reports whether a label bitmap prints at the engine's cell size,
// within half a pixel.
func (e *Engine) fits(label *image.Gray) bool {
	if label == nil {
		return false
	}
	b := label.Bounds()
	dw := float64(b.Dx()) - e.cellW.Pixels(e.sheet.DPI)
	dh := float64(b.Dy()) - e.cellH.Pixels(e.sheet.DPI)
	return math.Abs(dw) < 0.5+epsilon && math.Abs(dh) < 0.5+epsilon
}

// Arrange lays labels out in input order. It always returns at least one
// page; an empty input gives a single empty page. A label whose pixel size
// does not match the cell at the sheet DPI is rejected with INVALID_CONFIG.
func (e *Engine) Arrange(labels []*image.Gray) (Document, error) {
	for i, label := range labels {
		if !e.fits(label) {
			var size image.Point
			if label != nil {
				size = label.Bounds().Size()
			}
			return Document{}, errors.New(errors.ErrCodeInvalidConfig,
				"label %d is %dx%d px, want a %s x %s cell at %g dpi",
				i, size.X, size.Y, e.cellW, e.cellH, e.sheet.DPI)
		}
	}

	pages := 1
	if len(labels) > 0 {
		pages = (len(labels) + e.PerPage() - 1) / e.PerPage()
	}

	doc := Document{Pages: make([]Page, pages), DPI: e.sheet.DPI}
	for i := range doc.Pages {
		doc.Pages[i] = Page{Width: e.sheet.PageWidth, Height: e.sheet.PageHeight}
	}

	for i, label := range labels {
		page, x, y := e.Position(i)
		doc.Pages[page].Placements = append(doc.Pages[page].Placements, Placement{
			Label:  label,
			X:      x,
			Y:      y,
			Width:  e.cellW,
			Height: e.cellH,
			Index:  i,
		})
	}
	return doc, nil
}
