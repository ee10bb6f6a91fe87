package layout

import "strconv"

// Length is a physical distance in millimetres.
type Length float64

const (
	// Millimetre is one millimetre.
	Millimetre Length = 1

	// Inch is 25.4 millimetres.
	Inch Length = 25.4

	// pointsPerInch is the PostScript point density used by PDF.
	pointsPerInch = 72.0
)

// Mm returns the length in millimetres.
func (l Length) Mm() float64 { return float64(l) }

// Points returns the length in PostScript points (1/72 inch).
func (l Length) Points() float64 { return float64(l/Inch) * pointsPerInch }

// Pixels returns the length in pixels at dpi.
func (l Length) Pixels(dpi float64) float64 { return float64(l/Inch) * dpi }

// String formats the length as "12.5mm".
func (l Length) String() string {
	return strconv.FormatFloat(float64(l), 'f', -1, 64) + "mm"
}

// FromPixels converts a pixel count at dpi to a physical length.
func FromPixels(px int, dpi float64) Length {
	return Length(float64(px)/dpi) * Inch
}

// CellSize returns the physical size of a w×h pixel label printed at dpi.
func CellSize(w, h int, dpi float64) (Length, Length) {
	return FromPixels(w, dpi), FromPixels(h, dpi)
}
