// Package sink serializes labels and arranged documents.
//
// # Overview
//
// A "sink" turns the output of the layout engine into bytes:
//
//   - PDF: one page per [layout.Page], labels embedded as raster images
//   - PNG: a single label as an 8-bit grayscale image
//   - Preview PNG: one page rasterized, for checking a sheet on screen
//
// # PDF Output
//
// [RenderPDF] places each label at its millimetre position. Layout
// coordinates have their origin at the bottom-left of the page while the
// PDF writer measures from the top-left, so y is flipped here and nowhere
// else. The printed size of a label is its pixel size at the document DPI.
//
// No creation date or other clock-dependent field is written, so equal
// documents give byte-identical files:
//
//	pdf, err := sink.RenderPDF(doc)
//
// # PNG Output
//
// [RenderPNG] encodes one label; [RenderPagePNG] rasterizes a page with
// nearest-neighbour scaling so symbols stay bi-level at any preview DPI:
//
//	png, err := sink.RenderPNG(label)
//	preview, err := sink.RenderPagePNG(doc.Pages[0], sink.WithPreviewDPI(100))
//
// [layout.Page]: github.com/matzehuels/labelsheet/pkg/sheet/layout.Page
package sink
