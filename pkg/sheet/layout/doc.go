// Package layout arranges label bitmaps on printable pages.
//
// # Overview
//
// The layout engine tiles fixed-size labels onto pages in row-major order.
// Coordinates follow print convention: millimetres, origin at the
// bottom-left corner of the page, each placement positioned by the
// bottom-left corner of its label.
//
// The first label of a page sits at (Margin, PageHeight - Margin - cellH).
// Each following label moves right by PitchX; after Columns labels the row
// wraps, x returns to Margin and y drops by PitchY. When the next row
// would start below the bottom margin the page is closed and a new one is
// opened at the top-left start position, so any number of labels renders.
//
// # Usage
//
//	cw, ch := layout.CellSize(300, 375, 300)
//	eng, err := layout.New(layout.DefaultSheet(), cw, ch)
//	if err != nil {
//	    return err // geometry is rejected before any rendering
//	}
//	doc, err := eng.Arrange(labels)
//
// # Invariants
//
// [New] rejects geometry that would let labels overlap or leave the page.
// [Engine.Arrange] only fails when a label bitmap is not the cell size at
// the sheet DPI, since the emitter draws each label at its own pixel size.
// Together they guarantee:
//
//   - placements never overlap (pitches are at least the cell size)
//   - placements lie within page bounds with non-negative coordinates
//   - reading order (page, row top to bottom, column left to right)
//     equals input order; Placement.Index records the input position
//   - an empty input yields one empty page
package layout
