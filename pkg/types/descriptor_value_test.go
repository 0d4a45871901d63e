package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDescriptorValidate(t *testing.T) {
	paris := &ClassificationChoiceDescriptor{
		Base:      Base{Name: "paris_subtype"},
		ValueKind: DescriptorSelection,
		Options:   []string{"Is", "IIa"},
	}
	size := &ClassificationChoiceDescriptor{
		Base:      Base{Name: "polyp_size_mm"},
		ValueKind: DescriptorNumeric,
		Min:       ptr(0.0),
		Max:       ptr(100.0),
	}

	tests := []struct {
		name       string
		descriptor *ClassificationChoiceDescriptor
		raw        any
		want       DescriptorValue
		wantReason string
	}{
		{
			name:       "single selection rejects two values",
			descriptor: paris,
			raw:        []string{"Is", "IIa"},
			wantReason: "allows only a single selection",
		},
		{
			name:       "single selection accepts one value",
			descriptor: paris,
			raw:        []string{"Is"},
			want:       DescriptorValue{Selection: []string{"Is"}},
		},
		{
			name:       "selection decoded from JSON",
			descriptor: paris,
			raw:        []any{"IIa"},
			want:       DescriptorValue{Selection: []string{"IIa"}},
		},
		{
			name:       "bare string selection",
			descriptor: paris,
			raw:        "Is",
			want:       DescriptorValue{Selection: []string{"Is"}},
		},
		{
			name:       "selection outside options",
			descriptor: paris,
			raw:        []string{"IIb"},
			wantReason: `"IIb" is not one of the options [Is IIa]`,
		},
		{
			name:       "multiple selection",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "m"}, ValueKind: DescriptorSelection, Options: []string{"a", "b"}, Multiple: true},
			raw:        []string{"a", "b"},
			want:       DescriptorValue{Selection: []string{"a", "b"}},
		},
		{
			name:       "numeric within bounds",
			descriptor: size,
			raw:        12,
			want:       DescriptorValue{Numeric: ptr(12.0)},
		},
		{
			name:       "numeric from json.Number",
			descriptor: size,
			raw:        json.Number("7.5"),
			want:       DescriptorValue{Numeric: ptr(7.5)},
		},
		{
			name:       "numeric from text",
			descriptor: size,
			raw:        "30",
			want:       DescriptorValue{Numeric: ptr(30.0)},
		},
		{
			name:       "numeric above maximum",
			descriptor: size,
			raw:        120.0,
			wantReason: "120 is above the maximum 100",
		},
		{
			name:       "numeric below minimum",
			descriptor: size,
			raw:        -1,
			wantReason: "-1 is below the minimum 0",
		},
		{
			name:       "numeric rejects NaN text",
			descriptor: size,
			raw:        "NaN",
			wantReason: "NaN is not a finite number",
		},
		{
			name:       "numeric rejects NaN",
			descriptor: size,
			raw:        math.NaN(),
			wantReason: "NaN is not a finite number",
		},
		{
			name:       "numeric rejects infinity without bounds",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "depth"}, ValueKind: DescriptorNumeric},
			raw:        math.Inf(1),
			wantReason: "+Inf is not a finite number",
		},
		{
			name:       "numeric rejects negative infinity text",
			descriptor: size,
			raw:        "-Inf",
			wantReason: "-Inf is not a finite number",
		},
		{
			name:       "numeric rejects boolean",
			descriptor: size,
			raw:        true,
			wantReason: "expected a number, got bool",
		},
		{
			name:       "text",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "note"}, ValueKind: DescriptorText},
			raw:        "flat",
			want:       DescriptorValue{Text: ptr("flat")},
		},
		{
			name:       "boolean rejects text",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "resected"}, ValueKind: DescriptorBoolean},
			raw:        "yes",
			wantReason: "expected a boolean, got string",
		},
		{
			name:       "absent optional value",
			descriptor: size,
			raw:        nil,
			want:       DescriptorValue{},
		},
		{
			name:       "absent required value",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "r"}, ValueKind: DescriptorText, Required: true},
			raw:        "",
			wantReason: "value is required",
		},
		{
			name:       "absent value takes default",
			descriptor: &ClassificationChoiceDescriptor{Base: Base{Name: "d"}, ValueKind: DescriptorBoolean, Required: true, DefaultBoolean: ptr(false)},
			raw:        nil,
			want:       DescriptorValue{Boolean: ptr(false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.descriptor.Validate(tt.raw)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantReason, verr.Reason)
				assert.Equal(t, tt.descriptor.Name, verr.Entity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptorValueRaw(t *testing.T) {
	assert.Nil(t, DescriptorValue{}.Raw())
	assert.True(t, DescriptorValue{}.IsZero())
	assert.Equal(t, 3.5, DescriptorValue{Numeric: ptr(3.5)}.Raw())
	assert.Equal(t, []string{"Is"}, DescriptorValue{Selection: []string{"Is"}}.Raw())
	assert.False(t, DescriptorValue{Text: ptr("")}.IsZero())
}
