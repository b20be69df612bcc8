// Package fonts measures text with the face embedded in rendered documents.
//
// Widths are expressed in thousandths of an em, the unit PDF uses for glyph
// widths, so layout and serialization agree on every advance.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// FirstChar and LastChar bound the single-byte code range used for text.
const (
	FirstChar = 32
	LastChar  = 255
)

// Face is a parsed TrueType face with cached advances.
type Face struct {
	font *opentype.Font
	data []byte
	name string
	upem fixed.Int26_6

	ascent, descent, capHeight float64
	bbox                       [4]float64

	mu       sync.Mutex
	buf      sfnt.Buffer
	advances map[rune]float64
}

var (
	defaultOnce sync.Once
	defaultFace *Face
)

// Default returns the Go Regular face. It panics if the bundled font cannot
// be parsed, which only happens with a corrupt build.
func Default() *Face {
	defaultOnce.Do(func() {
		f, err := Parse(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("fonts: bundled Go Regular: %v", err))
		}
		defaultFace = f
	})
	return defaultFace
}

// Parse loads a TrueType face.
func Parse(ttf []byte) (*Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := &Face{
		font:     f,
		data:     ttf,
		upem:     fixed.I(int(f.UnitsPerEm())),
		advances: make(map[rune]float64),
	}

	face.name = "Font"
	if n, err := f.Name(&face.buf, sfnt.NameIDPostScript); err == nil && n != "" {
		face.name = n
	}

	m, err := f.Metrics(&face.buf, face.upem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	face.ascent = face.scale(m.Ascent)
	face.descent = -face.scale(m.Descent)
	face.capHeight = face.scale(m.CapHeight)

	// sfnt bounds grow downwards; PDF boxes grow upwards.
	b, err := f.Bounds(&face.buf, face.upem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font bounds: %w", err)
	}
	face.bbox = [4]float64{face.scale(b.Min.X), -face.scale(b.Max.Y), face.scale(b.Max.X), -face.scale(b.Min.Y)}
	return face, nil
}

func (f *Face) scale(v fixed.Int26_6) float64 {
	return float64(v) * 1000 / float64(f.upem)
}

// Name returns the PostScript name of the face.
func (f *Face) Name() string { return f.name }

// Data returns the raw font program.
func (f *Face) Data() []byte { return f.data }

// Ascent returns the ascender in thousandths of an em.
func (f *Face) Ascent() float64 { return f.ascent }

// Descent returns the descender in thousandths of an em. It is negative.
func (f *Face) Descent() float64 { return f.descent }

// CapHeight returns the capital height in thousandths of an em.
func (f *Face) CapHeight() float64 { return f.capHeight }

// BBox returns the font bounding box (xMin, yMin, xMax, yMax).
func (f *Face) BBox() [4]float64 { return f.bbox }

// Advance returns the width of r as it will be encoded.
func (f *Face) Advance(r rune) float64 {
	r = Encodable(r)

	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.advances[r]; ok {
		return w
	}
	var w float64
	if idx, err := f.font.GlyphIndex(&f.buf, r); err == nil {
		if adv, err := f.font.GlyphAdvance(&f.buf, idx, f.upem, font.HintingNone); err == nil {
			w = f.scale(adv)
		}
	}
	f.advances[r] = w
	return w
}

// Measure returns the width of s at size points.
func (f *Face) Measure(s string, size float64) float64 {
	var total float64
	for _, r := range s {
		total += f.Advance(r)
	}
	return total * size / 1000
}

// LineHeight returns ascent minus descent at size points.
func (f *Face) LineHeight(size float64) float64 {
	return (f.ascent - f.descent) * size / 1000
}

// Widths returns the advance of every code from FirstChar to LastChar.
func (f *Face) Widths() []float64 {
	out := make([]float64, 0, LastChar-FirstChar+1)
	for c := FirstChar; c <= LastChar; c++ {
		out = append(out, f.Advance(charmap.Windows1252.DecodeByte(byte(c))))
	}
	return out
}

// Encodable maps r to itself when it has a single-byte code, or to '?'.
func Encodable(r rune) rune {
	if b, ok := charmap.Windows1252.EncodeRune(r); !ok || b < FirstChar {
		return '?'
	}
	return r
}

// Encode converts s to single-byte codes, replacing what cannot be encoded with '?'.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok || b < FirstChar {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
