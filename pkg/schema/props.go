package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/quire/pkg/domain"
)

// DocumentProps are the metadata props of a DOCUMENT.
type DocumentProps struct {
	Title    string `mapstructure:"title"`
	Author   string `mapstructure:"author"`
	Subject  string `mapstructure:"subject"`
	Keywords string `mapstructure:"keywords"`
	Creator  string `mapstructure:"creator"`
	Producer string `mapstructure:"producer"`
}

// PageProps configure a PAGE.
type PageProps struct {
	Size            any     `mapstructure:"size"`
	Orientation     string  `mapstructure:"orientation"`
	Padding         float64 `mapstructure:"padding"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
}

// BoxProps are shared by every block-level element.
type BoxProps struct {
	Width           float64 `mapstructure:"width"`
	Height          float64 `mapstructure:"height"`
	Padding         float64 `mapstructure:"padding"`
	Margin          float64 `mapstructure:"margin"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
	BorderColor     string  `mapstructure:"borderColor"`
	BorderWidth     float64 `mapstructure:"borderWidth"`
	Fixed           bool    `mapstructure:"fixed"`
	Break           bool    `mapstructure:"break"`
}

// TextProps configure TEXT spans and blocks.
type TextProps struct {
	BoxProps   `mapstructure:",squash"`
	FontSize   float64 `mapstructure:"fontSize"`
	Color      string  `mapstructure:"color"`
	TextAlign  string  `mapstructure:"textAlign"`
	LineHeight float64 `mapstructure:"lineHeight"`
}

// LinkProps configure a LINK.
type LinkProps struct {
	TextProps `mapstructure:",squash"`
	Src       string `mapstructure:"src"`
}

// ImageProps configure an IMAGE.
type ImageProps struct {
	BoxProps `mapstructure:",squash"`
	Src      string `mapstructure:"src"`
}

// NoteProps configure a NOTE annotation.
type NoteProps struct {
	Open  bool `mapstructure:"open"`
	Fixed bool `mapstructure:"fixed"`
	Break bool `mapstructure:"break"`
}

// CanvasProps configure a CANVAS.
type CanvasProps struct {
	BoxProps `mapstructure:",squash"`
}

// Flatten merges a nested style map over the element's own props.
// Style entries win.
func Flatten(props map[string]any) map[string]any {
	style, ok := props[domain.PropStyle].(map[string]any)
	if !ok {
		if _, has := props[domain.PropStyle]; !has {
			return props
		}
	}
	out := make(map[string]any, len(props)+len(style))
	for k, v := range props {
		if k != domain.PropStyle {
			out[k] = v
		}
	}
	for k, v := range style {
		out[k] = v
	}
	return out
}

// DecodeProps decodes flattened props into out, a pointer to one of the
// *Props structs. Numbers and booleans given as strings are accepted.
func DecodeProps(props map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(Flatten(props)); err != nil {
		return fmt.Errorf("decode props: %w", err)
	}
	return nil
}

var namedColors = map[string]domain.Color{
	"black": {},
	"white": {R: 1, G: 1, B: 1},
	"red":   {R: 1},
	"green": {G: 0.5},
	"blue":  {B: 1},
	"gray":  {R: 0.5, G: 0.5, B: 0.5},
	"grey":  {R: 0.5, G: 0.5, B: 0.5},
}

// ParseColor parses "#rgb", "#rrggbb" or a named color.
func ParseColor(s string) (domain.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return domain.Color{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return domain.Color{}, fmt.Errorf("malformed color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return domain.Color{}, fmt.Errorf("malformed color %q", s)
	}
	return domain.Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Page sizes in points, portrait.
var pageSizes = map[string][2]float64{
	"A3":     {841.89, 1190.55},
	"A4":     {595.28, 841.89},
	"A5":     {419.53, 595.28},
	"LETTER": {612, 792},
	"LEGAL":  {612, 1008},
}

// DefaultPageSize is used when a PAGE has no size.
const DefaultPageSize = "A4"

// ParsePageSize resolves a named size or a [width, height] pair.
// A nil value yields the default size.
func ParsePageSize(v any) (width, height float64, err error) {
	if v == nil {
		v = DefaultPageSize
	}
	if s, ok := v.(string); ok {
		size, ok := pageSizes[strings.ToUpper(strings.TrimSpace(s))]
		if !ok {
			return 0, 0, fmt.Errorf("unknown page size %q", s)
		}
		return size[0], size[1], nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array || rv.Len() != 2 {
		return 0, 0, fmt.Errorf("page size must be a name or [width, height], got %T", v)
	}
	w, okW := toFloat(rv.Index(0).Interface())
	h, okH := toFloat(rv.Index(1).Interface())
	if !okW || !okH || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("page size must be two positive numbers")
	}
	return w, h, nil
}
