// Package symbol encodes locator URLs as QR code bitmaps.
//
// A symbol is the machine-readable half of a label: a square, strictly
// bi-level image whose payload is the canonical URL of one inventory
// record. Encoding picks the smallest QR version that holds the payload at
// the requested error-correction level and scales it to the requested
// pixel size with integer nearest-neighbour scaling, so modules stay sharp.
//
//	sym, err := symbol.Encode(symbol.Locator(root, "item", 42), symbol.Low, 300)
//	if errors.Is(err, errors.ErrCodePayloadTooLong) {
//	    // report the record, keep going with the others
//	}
package symbol

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/draw"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Level is the error-correction strength of a symbol.
type Level int

// Error-correction levels, from most capacity to most resilience.
const (
	Low Level = iota
	Medium
	Quartile
	High
)

var levelNames = [...]string{"low", "medium", "quartile", "high"}

// String returns the long lowercase name of the level.
func (l Level) String() string {
	if l < Low || l > High {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// ParseLevel parses "low", "medium", "quartile", "high" or the single
// letters L, M, Q, H (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return Low, nil
	case "medium", "m":
		return Medium, nil
	case "quartile", "q":
		return Quartile, nil
	case "high", "h":
		return High, nil
	}
	return Low, errors.New(errors.ErrCodeInvalidConfig, "invalid error correction level: %q (must be one of: low, medium, quartile, high)", s)
}

// MarshalText implements encoding.TextMarshaler for config files.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for config files.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l Level) qr() qr.ErrorCorrectionLevel {
	switch l {
	case Medium:
		return qr.M
	case Quartile:
		return qr.Q
	case High:
		return qr.H
	default:
		return qr.L
	}
}

// MinModules is the side length of the smallest QR grid (version 1).
// A symbol dimension below it cannot hold any payload.
const MinModules = 21

// byteCapacity is the byte-mode payload capacity of a version 40 symbol.
var byteCapacity = [...]int{2953, 2331, 1663, 1273}

// Capacity returns the largest byte-mode payload, in bytes, that a symbol
// at level l can hold. Locators are always byte-mode because they contain
// lowercase letters.
func Capacity(l Level) int {
	if l < Low || l > High {
		return 0
	}
	return byteCapacity[l]
}

// Symbol is an encoded payload scaled to a square bitmap.
type Symbol struct {
	// Payload is the encoded string.
	Payload string

	// Level is the error-correction level used.
	Level Level

	// Modules is the side length of the QR grid before scaling.
	Modules int

	// Image is the bi-level bitmap: every pixel is 0 (dark) or 255 (light).
	Image *image.Gray
}

// Size returns the side length of the bitmap in pixels.
func (s *Symbol) Size() int {
	return s.Image.Bounds().Dx()
}

// Locator builds the scan target for a record: {root}/{route}/{id}.
// Trailing slashes on root are dropped so the result has exactly one
// separator between segments.
func Locator(root, route string, id int64) string {
	return strings.TrimRight(root, "/") + "/" + route + "/" + strconv.FormatInt(id, 10)
}

// Encode encodes payload at level and scales it to a dim×dim bitmap.
//
// Encode fails with PAYLOAD_TOO_LONG when the payload does not fit the
// largest symbol at level; the payload is never truncated. It fails with
// INVALID_CONFIG when dim is smaller than the module count of the symbol.
// Identical arguments always produce identical bitmaps.
func Encode(payload string, level Level, dim int) (*Symbol, error) {
	if dim <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "symbol dimension must be positive, got %d", dim)
	}
	if level < Low || level > High {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid error correction level %d", int(level))
	}

	code, err := qr.Encode(payload, level.qr(), qr.Auto)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePayloadTooLong, err,
			"payload of %d bytes exceeds symbol capacity at level %s (max %d)", len(payload), level, Capacity(level))
	}

	modules := code.Bounds().Dx()
	if dim < modules {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"symbol dimension %d is smaller than the %d modules needed for this payload", dim, modules)
	}

	scaled, err := barcode.Scale(code, dim, dim)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "scale symbol to %dx%d", dim, dim)
	}

	return &Symbol{
		Payload: payload,
		Level:   level,
		Modules: modules,
		Image:   toBilevel(scaled),
	}, nil
}

// toBilevel copies img into a gray bitmap and thresholds it, so nothing
// but pure dark and pure light can reach the label.
func toBilevel(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	for i, v := range out.Pix {
		if v < 128 {
			out.Pix[i] = 0
		} else {
			out.Pix[i] = 255
		}
	}
	return out
}

// Dark reports whether the pixel at (x, y) is dark.
func (s *Symbol) Dark(x, y int) bool {
	return s.Image.GrayAt(x, y) == color.Gray{Y: 0}
}
