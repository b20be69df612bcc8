package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for property validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numeric values as decoded from Go, YAML or JSON.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	if _, ok := toFloat(value); !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EnumType accepts one of a fixed set of strings (case-insensitive).
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return strings.Join(t.values, "|") }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected one of %s, got %T", t.Name(), value)
	}
	for _, v := range t.values {
		if strings.EqualFold(v, s) {
			return nil
		}
	}
	return fmt.Errorf("expected one of %s, got %q", t.Name(), s)
}

// AnyOfType accepts a value matching at least one of its alternatives.
type AnyOfType struct {
	alts []Type
}

func (t *AnyOfType) Name() string {
	names := make([]string, len(t.alts))
	for i, a := range t.alts {
		names[i] = a.Name()
	}
	return strings.Join(names, " or ")
}

func (t *AnyOfType) Validate(value any) error {
	for _, a := range t.alts {
		if a.Validate(value) == nil {
			return nil
		}
	}
	return fmt.Errorf("expected %s, got %T", t.Name(), value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a numeric type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Enum creates a validator accepting one of values.
func Enum(values ...string) Type {
	return &EnumType{values: values}
}

// AnyOf creates a validator accepting any of the alternatives.
func AnyOf(alts ...Type) Type {
	return &AnyOfType{alts: alts}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ColorValue validates "#rgb", "#rrggbb" or a named color.
func ColorValue() Type {
	return Custom("color", func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected color string, got %T", v)
		}
		_, err := ParseColor(s)
		return err
	})
}

// PageSizeValue validates a named page size or a [width, height] pair in points.
func PageSizeValue() Type {
	return Custom("page size", func(v any) error {
		_, _, err := ParsePageSize(v)
		return err
	})
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
