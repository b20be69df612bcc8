package schema

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Schema is a map of prop names to their expected types.
type Schema map[string]Type

var boxSchema = Schema{
	"width":           Number(),
	"height":          Number(),
	"padding":         Number(),
	"margin":          Number(),
	"backgroundColor": ColorValue(),
	"borderColor":     ColorValue(),
	"borderWidth":     Number(),
	domain.PropFixed:  Bool(),
	domain.PropBreak:  Bool(),
}

var textSchema = boxSchema.extend(Schema{
	"fontSize":   Number(),
	"color":      ColorValue(),
	"textAlign":  Enum("left", "center", "right"),
	"lineHeight": Number(),
})

// KindSchemas lists the props each kind accepts.
var KindSchemas = map[domain.Kind]Schema{
	domain.KindDocument: {
		"title":    String(),
		"author":   String(),
		"subject":  String(),
		"keywords": String(),
		"creator":  String(),
		"producer": String(),
	},
	domain.KindPage: {
		"size":            PageSizeValue(),
		"orientation":     Enum("portrait", "landscape"),
		"padding":         Number(),
		"backgroundColor": ColorValue(),
	},
	domain.KindView:   boxSchema,
	domain.KindText:   textSchema,
	domain.KindLink:   textSchema.extend(Schema{domain.PropSrc: String()}),
	domain.KindImage:  boxSchema.extend(Schema{domain.PropSrc: String()}),
	domain.KindCanvas: boxSchema,
	domain.KindNote: {
		"open":           Bool(),
		domain.PropFixed: Bool(),
		domain.PropBreak: Bool(),
	},
}

// Required lists props that must be present per kind.
var Required = map[domain.Kind][]string{
	domain.KindLink:  {domain.PropSrc},
	domain.KindImage: {domain.PropSrc},
}

func (s Schema) extend(more Schema) Schema {
	out := make(Schema, len(s)+len(more))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range more {
		out[k] = v
	}
	return out
}

// Validate lints the props of every element in doc against KindSchemas.
// Structural rules are the reconciler's concern; this only looks at props.
// It returns an *AggregateError listing every failure found.
func Validate(doc domain.Element) error {
	var errs []error
	doc.Walk(func(path []int, el domain.Element) bool {
		errs = append(errs, validateElement(formatPath(path), el)...)
		return true
	})
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateElement(path string, el domain.Element) []error {
	s, ok := KindSchemas[el.Kind]
	if !ok {
		return nil
	}
	props := Flatten(el.Props)

	var errs []error
	for _, key := range sortedKeys(props) {
		value := props[key]
		typ, known := s[key]
		if !known {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: "unknown property"})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: err.Error(), Value: value})
		}
	}
	for _, key := range Required[el.Kind] {
		if v, ok := props[key]; !ok || v == "" {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: "required"})
		}
	}
	return errs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
