// Package compose merges a symbol and a display name into one label bitmap.
//
// A label is a fixed-size grayscale canvas: the symbol sits flush with the
// top-left corner and the name is printed in the band below it. Names are
// never wrapped or truncated. Instead the text is squeezed horizontally
// until it fits, with a scale inversely proportional to its length, so a
// long name prints small but complete.
//
// The symbol is drawn last with plain pixel replacement, so anti-aliased
// text can never bleed into the barcode region.
package compose

import (
	"image"
	"image/color"
	"math"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/matzehuels/labelsheet/pkg/fonts"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
)

const (
	// DefaultTextHeight is the font size as a fraction of the text band.
	DefaultTextHeight = 0.8

	// DefaultPadding is the horizontal padding, in pixels, on each side of
	// the text.
	DefaultPadding = 4

	// MaxScale caps horizontal text scale so short names are not stretched.
	MaxScale = 1.0
)

// Option configures a Compositor.
type Option func(*Compositor)

// WithTextHeight sets the font size as a fraction of the text band height.
func WithTextHeight(ratio float64) Option {
	return func(c *Compositor) { c.textHeight = ratio }
}

// WithPadding sets the horizontal text padding in pixels.
func WithPadding(px int) Option {
	return func(c *Compositor) { c.padding = px }
}

// Compositor renders labels with one shared font.
// It is safe for concurrent use: each call creates its own face.
type Compositor struct {
	font       *fonts.Font
	textHeight float64
	padding    int
}

// New creates a Compositor drawing names with f.
func New(f *fonts.Font, opts ...Option) *Compositor {
	c := &Compositor{
		font:       f,
		textHeight: DefaultTextHeight,
		padding:    DefaultPadding,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TextScale returns the horizontal scale for a name of runes characters
// printed in printable pixels, where nominal is the advance of a wide
// glyph at unit scale. It is inversely proportional to the character
// count and capped at MaxScale; an empty name gets MaxScale.
func TextScale(runes int, printable, nominal float64) float64 {
	if runes <= 0 || nominal <= 0 {
		return MaxScale
	}
	return math.Min(MaxScale, printable/(float64(runes)*nominal))
}

// Compose returns a w×h label holding sym at (0, 0) and name centred in
// the band below it. An empty name yields a label with only the symbol.
// When the canvas is no taller than the symbol there is no band and the
// name is omitted.
func (c *Compositor) Compose(sym *symbol.Symbol, name string, w, h int) *image.Gray {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	symH := sym.Image.Bounds().Dy()
	band := h - symH
	if name != "" && band > 0 {
		c.drawName(dc, name, w, symH, band)
	}

	label := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(label, label.Bounds(), dc.Image(), image.Point{}, draw.Src)
	draw.Draw(label, sym.Image.Bounds(), sym.Image, image.Point{}, draw.Src)
	return label
}

// drawName renders name into the band starting at row top.
func (c *Compositor) drawName(dc *gg.Context, name string, w, top, band int) {
	face, err := c.font.Face(float64(band) * c.textHeight)
	if err != nil {
		// Only reachable with a non-positive text height; leave the band blank.
		return
	}
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetColor(color.Black)

	printable := float64(w - 2*c.padding)
	if printable <= 0 {
		return
	}

	sx := TextScale(utf8.RuneCountInString(name), printable, nominalAdvance(face))
	natural, _ := dc.MeasureString(name)
	if natural*sx > printable {
		sx = printable / natural
	}

	m := face.Metrics()
	ascent := float64(m.Ascent.Ceil())
	descent := float64(m.Descent.Ceil())
	baseline := float64(top) + (float64(band)-ascent-descent)/2 + ascent
	left := (float64(w) - natural*sx) / 2

	dc.Push()
	dc.Translate(left, baseline)
	dc.Scale(sx, 1)
	dc.DrawString(name, 0, 0)
	dc.Pop()
}

// nominalAdvance is the advance of 'M', a stand-in for the widest glyph.
func nominalAdvance(face font.Face) float64 {
	adv, ok := face.GlyphAdvance('M')
	if !ok {
		return float64(face.Metrics().Height.Ceil()) / 2
	}
	return float64(adv) / 64
}
