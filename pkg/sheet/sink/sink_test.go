package sink

import (
	"bytes"
	"image"
	"image/png"
	"regexp"
	"testing"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

var pageObject = regexp.MustCompile(`/Type\s*/Page[^s]`)

// testLabel returns a label with a dark square whose position depends on
// seed, so labels are distinguishable.
func testLabel(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 60, 75))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	off := seed % 40
	for y := off; y < off+20; y++ {
		for x := off; x < off+20; x++ {
			img.Pix[y*img.Stride+x] = 0
		}
	}
	return img
}

func testDocument(t *testing.T, n int) layout.Document {
	t.Helper()
	s := layout.DefaultSheet()
	s.DPI = 60
	cw, ch := layout.CellSize(60, 75, s.DPI)
	eng, err := layout.New(s, cw, ch)
	if err != nil {
		t.Fatalf("layout.New() error: %v", err)
	}
	labels := make([]*image.Gray, n)
	for i := range labels {
		labels[i] = testLabel(i)
	}
	doc, err := eng.Arrange(labels)
	if err != nil {
		t.Fatalf("Arrange() error: %v", err)
	}
	return doc
}

func TestRenderPDF(t *testing.T) {
	doc := testDocument(t, 3)

	data, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:min(len(data), 8)])
	}
	if n := len(pageObject.FindAll(data, -1)); n != 1 {
		t.Errorf("page objects = %d, want 1", n)
	}
}

func TestRenderPDFPages(t *testing.T) {
	doc := testDocument(t, 65)
	if len(doc.Pages) != 2 {
		t.Fatalf("layout produced %d pages, want 2", len(doc.Pages))
	}

	data, err := RenderPDF(doc, WithoutCompression())
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if n := len(pageObject.FindAll(data, -1)); n != 2 {
		t.Errorf("page objects = %d, want 2", n)
	}
}

func TestRenderPDFEmptyPage(t *testing.T) {
	data, err := RenderPDF(testDocument(t, 0))
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if n := len(pageObject.FindAll(data, -1)); n != 1 {
		t.Errorf("page objects = %d, want 1", n)
	}
}

func TestRenderPDFDeterministic(t *testing.T) {
	doc := testDocument(t, 10)

	a, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	b, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("RenderPDF() output differs between identical documents")
	}
}

func TestRenderPDFInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  layout.Document
	}{
		{"no pages", layout.Document{DPI: 300}},
		{"zero dpi", layout.Document{Pages: []layout.Page{{Width: 210, Height: 297}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderPDF(tt.doc)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("RenderPDF() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRenderPNGGray8(t *testing.T) {
	label := testLabel(5)

	data, err := RenderPNG(label)
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if cfg.Width != 60 || cfg.Height != 75 {
		t.Errorf("size = %dx%d, want 60x75", cfg.Width, cfg.Height)
	}

	back, err := DecodePNG(data)
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}
	if !bytes.Equal(back.Pix, label.Pix) {
		t.Error("decoded label differs from the original")
	}
}

func TestDecodePNGInvalid(t *testing.T) {
	if _, err := DecodePNG([]byte("not a png")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("DecodePNG() error = %v, want INVALID_FORMAT", err)
	}
}

func TestRenderPagePNG(t *testing.T) {
	doc := testDocument(t, 2)

	data, err := RenderPagePNG(doc.Pages[0], WithPreviewDPI(60))
	if err != nil {
		t.Fatalf("RenderPagePNG() error: %v", err)
	}
	img, err := DecodePNG(data)
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}

	// A4 at 60 DPI.
	if b := img.Bounds(); b.Dx() != 496 || b.Dy() != 702 {
		t.Errorf("preview size = %v, want 496x702", b)
	}
	for _, v := range img.Pix {
		if v != 0 && v != 0xff {
			t.Fatalf("preview contains blended value %d", v)
		}
	}
}

func TestRenderPagePNGInvalidDPI(t *testing.T) {
	doc := testDocument(t, 1)
	if _, err := RenderPagePNG(doc.Pages[0], WithPreviewDPI(0)); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("RenderPagePNG() error = %v, want INVALID_CONFIG", err)
	}
}
