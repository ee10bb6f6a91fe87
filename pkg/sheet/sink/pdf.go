package sink

import (
	"github.com/signintech/gopdf"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	compress bool
}

// WithoutCompression writes uncompressed content streams, which makes the
// output readable in a text editor.
func WithoutCompression() PDFOption {
	return func(r *pdfRenderer) { r.compress = false }
}

// RenderPDF renders every page of doc, in order, as a PDF page.
func RenderPDF(doc layout.Document, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{compress: true}
	for _, opt := range opts {
		opt(&r)
	}

	if len(doc.Pages) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document has no pages")
	}
	if doc.DPI <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document dpi must be positive, got %g", doc.DPI)
	}

	first := doc.Pages[0]
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		PageSize: gopdf.Rect{W: first.Width.Points(), H: first.Height.Points()},
		Unit:     gopdf.UnitPT,
	})
	if !r.compress {
		pdf.SetNoCompression()
	}

	for i, page := range doc.Pages {
		pdf.AddPageWithOption(gopdf.PageOption{
			PageSize: &gopdf.Rect{W: page.Width.Points(), H: page.Height.Points()},
		})
		for _, p := range page.Placements {
			b := p.Label.Bounds()
			w, h := layout.CellSize(b.Dx(), b.Dy(), doc.DPI)
			top := page.Height - p.Y - h
			rect := &gopdf.Rect{W: w.Points(), H: h.Points()}
			if err := pdf.ImageFrom(p.Label, p.X.Points(), top.Points(), rect); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "page %d: embed label %d", i+1, p.Index)
			}
		}
	}

	data, err := pdf.GetBytesPdfReturnErr()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	return data, nil
}
