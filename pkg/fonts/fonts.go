// Package fonts provides the font used to print names on labels.
//
// The default face is Go Regular, compiled into the binary through
// golang.org/x/image/font/gofont, so label rendering needs no font files
// on the host. A TTF/OTF file can replace it with [LoadFile] (the CLI's
// --font flag or the font config key).
//
// Go Regular covers Latin, Greek and Cyrillic only. Names in other
// scripts, such as CJK, print as a blank band unless a font covering them
// is configured; [Font.Missing] lists the runes a font cannot draw.
//
// Fonts are parsed once and shared read-only. Faces are not safe for
// concurrent use, so callers create one per goroutine with [Font.Face].
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// DefaultName is the name reported for the built-in font.
const DefaultName = "Go Regular"

// Font is a parsed font shared by every label of a process.
type Font struct {
	// Name identifies the font in logs (family name or file base name).
	Name string

	// Hash is the hex SHA-256 of the font source, used in cache keys so a
	// font change invalidates previously rendered labels.
	Hash string

	otf *opentype.Font
}

// Parse parses TTF or OTF data into a Font.
// A parse failure is reported as FONT_LOAD.
func Parse(name string, data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeFontLoad, "font %s is empty", name)
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "parse font %s", name)
	}
	sum := sha256.Sum256(data)
	return &Font{Name: name, Hash: hex.EncodeToString(sum[:]), otf: otf}, nil
}

// LoadFile reads and parses a font file.
func LoadFile(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "read font %s", path)
	}
	return Parse(filepath.Base(path), data)
}

var (
	defaultFont    *Font
	defaultFontErr error
	defaultOnce    sync.Once
)

// Default returns the built-in font. It is parsed on first use and the
// same *Font is returned to every caller afterwards.
func Default() (*Font, error) {
	defaultOnce.Do(func() {
		defaultFont, defaultFontErr = Parse(DefaultName, goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

// Load returns the font at path, or the built-in font when path is empty.
func Load(path string) (*Font, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Face returns a new face of the given pixel size.
// The face is unhinted at 72 DPI so one unit equals one raster pixel.
func (f *Font) Face(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "font size must be positive, got %g", size)
	}
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "create face for %s at %gpx", f.Name, size)
	}
	return face, nil
}

// Missing returns the distinct printable runes of s that have no glyph in
// the font, in order of first appearance.
func (f *Font) Missing(s string) []rune {
	var (
		buf  sfnt.Buffer
		seen map[rune]bool
		out  []rune
	)
	for _, r := range s {
		if !unicode.IsGraphic(r) || unicode.IsSpace(r) || seen[r] {
			continue
		}
		idx, err := f.otf.GlyphIndex(&buf, r)
		if err == nil && idx != 0 {
			continue
		}
		if seen == nil {
			seen = make(map[rune]bool)
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
