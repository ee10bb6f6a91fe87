package sink

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

// RenderPNG encodes a label as an 8-bit grayscale PNG.
func RenderPNG(label *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, label); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes a label previously written by RenderPNG.
func DecodePNG(data []byte) (*image.Gray, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode png")
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g, nil
}

// PreviewOption configures page previews.
type PreviewOption func(*previewRenderer)

type previewRenderer struct {
	dpi float64
}

// WithPreviewDPI sets the preview resolution (default 100).
func WithPreviewDPI(dpi float64) PreviewOption {
	return func(r *previewRenderer) { r.dpi = dpi }
}

// RenderPagePNG rasterizes one page. Labels are scaled with nearest
// neighbour so symbol modules stay pure black and white.
func RenderPagePNG(page layout.Page, opts ...PreviewOption) ([]byte, error) {
	r := previewRenderer{dpi: 100}
	for _, opt := range opts {
		opt(&r)
	}
	if r.dpi <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "preview dpi must be positive, got %g", r.dpi)
	}

	w := int(page.Width.Pixels(r.dpi) + 0.5)
	h := int(page.Height.Pixels(r.dpi) + 0.5)
	canvas := image.NewGray(image.Rect(0, 0, w, h))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xff
	}

	for _, p := range page.Placements {
		x0 := int(p.X.Pixels(r.dpi) + 0.5)
		y0 := int((page.Height - p.Y - p.Height).Pixels(r.dpi) + 0.5)
		dst := image.Rect(x0, y0, x0+int(p.Width.Pixels(r.dpi)+0.5), y0+int(p.Height.Pixels(r.dpi)+0.5))
		draw.NearestNeighbor.Scale(canvas, dst, p.Label, p.Label.Bounds(), draw.Src, nil)
	}

	return RenderPNG(canvas)
}
