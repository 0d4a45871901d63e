package types

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// DescriptorKind is the declared value kind of a classification choice
// descriptor.
type DescriptorKind string

// Descriptor value kinds.
const (
	DescriptorNumeric   DescriptorKind = "numeric"
	DescriptorText      DescriptorKind = "text"
	DescriptorBoolean   DescriptorKind = "boolean"
	DescriptorSelection DescriptorKind = "selection"
)

// validDescriptorKinds is the set of recognized descriptor kinds.
var validDescriptorKinds = map[DescriptorKind]bool{
	DescriptorNumeric:   true,
	DescriptorText:      true,
	DescriptorBoolean:   true,
	DescriptorSelection: true,
}

// IsValidDescriptorKind reports whether k is a recognized descriptor kind.
func IsValidDescriptorKind(k DescriptorKind) bool {
	return validDescriptorKinds[k]
}

// DescriptorValue is one concrete value typed per the descriptor's kind.
// Exactly one field is set for a present value; all are zero for an absent
// optional value.
type DescriptorValue struct {
	Numeric   *float64 `json:"numeric,omitempty"`
	Text      *string  `json:"text,omitempty"`
	Boolean   *bool    `json:"boolean,omitempty"`
	Selection []string `json:"selection,omitempty"`
}

// IsZero reports whether no value is set.
func (v DescriptorValue) IsZero() bool {
	return v.Numeric == nil && v.Text == nil && v.Boolean == nil && v.Selection == nil
}

// Raw returns the shallow representation of the value: float64, string,
// bool, []string, or nil.
func (v DescriptorValue) Raw() any {
	switch {
	case v.Numeric != nil:
		return *v.Numeric
	case v.Text != nil:
		return *v.Text
	case v.Boolean != nil:
		return *v.Boolean
	case v.Selection != nil:
		return slices.Clone(v.Selection)
	default:
		return nil
	}
}

// Validate checks raw against the descriptor's declared kind, bounds and
// selection options and returns the typed value. An absent value takes the
// descriptor's default; an absent value with no default fails when the
// descriptor is required.
func (d *ClassificationChoiceDescriptor) Validate(raw any) (DescriptorValue, error) {
	if isAbsent(raw) {
		if v, ok := d.defaultValue(); ok {
			return v, nil
		}
		if d.Required {
			return DescriptorValue{}, d.fail("value is required")
		}
		return DescriptorValue{}, nil
	}

	switch d.ValueKind {
	case DescriptorNumeric:
		n, ok := toFloat(raw)
		if !ok {
			return DescriptorValue{}, d.fail(fmt.Sprintf("expected a number, got %T", raw))
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return DescriptorValue{}, d.fail(fmt.Sprintf("%g is not a finite number", n))
		}
		if d.Min != nil && n < *d.Min {
			return DescriptorValue{}, d.fail(fmt.Sprintf("%g is below the minimum %g", n, *d.Min))
		}
		if d.Max != nil && n > *d.Max {
			return DescriptorValue{}, d.fail(fmt.Sprintf("%g is above the maximum %g", n, *d.Max))
		}
		return DescriptorValue{Numeric: &n}, nil
	case DescriptorText:
		s, ok := raw.(string)
		if !ok {
			return DescriptorValue{}, d.fail(fmt.Sprintf("expected text, got %T", raw))
		}
		return DescriptorValue{Text: &s}, nil
	case DescriptorBoolean:
		b, ok := raw.(bool)
		if !ok {
			return DescriptorValue{}, d.fail(fmt.Sprintf("expected a boolean, got %T", raw))
		}
		return DescriptorValue{Boolean: &b}, nil
	case DescriptorSelection:
		sel, ok := toStrings(raw)
		if !ok {
			return DescriptorValue{}, d.fail(fmt.Sprintf("expected a selection, got %T", raw))
		}
		if len(sel) == 0 && d.Required {
			return DescriptorValue{}, d.fail("value is required")
		}
		if len(sel) > 1 && !d.Multiple {
			return DescriptorValue{}, d.fail("allows only a single selection")
		}
		for _, s := range sel {
			if !slices.Contains(d.Options, s) {
				return DescriptorValue{}, d.fail(fmt.Sprintf("%q is not one of the options %v", s, d.Options))
			}
		}
		return DescriptorValue{Selection: sel}, nil
	default:
		return DescriptorValue{}, d.fail(fmt.Sprintf("unknown value kind %q", d.ValueKind))
	}
}

func (d *ClassificationChoiceDescriptor) defaultValue() (DescriptorValue, bool) {
	switch d.ValueKind {
	case DescriptorNumeric:
		if d.DefaultNumeric != nil {
			n := *d.DefaultNumeric
			return DescriptorValue{Numeric: &n}, true
		}
	case DescriptorText:
		if d.DefaultText != nil {
			s := *d.DefaultText
			return DescriptorValue{Text: &s}, true
		}
	case DescriptorBoolean:
		if d.DefaultBoolean != nil {
			b := *d.DefaultBoolean
			return DescriptorValue{Boolean: &b}, true
		}
	case DescriptorSelection:
		if len(d.DefaultSelection) > 0 {
			return DescriptorValue{Selection: slices.Clone(d.DefaultSelection)}, true
		}
	}
	return DescriptorValue{}, false
}

func (d *ClassificationChoiceDescriptor) fail(reason string) error {
	return ValidationFailure(KindClassificationChoiceDescriptor, d.Name, "value", reason)
}

func isAbsent(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		// Tabular sources deliver numbers as text.
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func toStrings(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		return []string{v}, true
	case []string:
		return slices.Clone(v), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
