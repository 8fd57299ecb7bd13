package hcl_adapter

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCtyValueToInterface(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		in   cty.Value
		want any
	}{
		{name: "string", in: cty.StringVal("hello"), want: "hello"},
		{name: "whole number", in: cty.NumberIntVal(42), want: 42},
		{name: "fraction", in: cty.NumberFloatVal(1.5), want: 1.5},
		{name: "bool", in: cty.True, want: true},
		{name: "null", in: cty.NullVal(cty.String), want: nil},
		{name: "unknown", in: cty.UnknownVal(cty.Number), want: nil},
		{
			name: "object",
			in:   cty.ObjectVal(map[string]cty.Value{"size": cty.NumberIntVal(3), "name": cty.StringVal("a")}),
			want: map[string]any{"size": 3, "name": "a"},
		},
		{
			name: "tuple",
			in:   cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(1)}),
			want: []any{"a", 1},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ctyValueToInterface(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCtyValueToInterface_Unsupported(t *testing.T) {
	t.Parallel()
	opaque := cty.Capsule("opaque", reflect.TypeOf(struct{}{}))
	_, err := ctyValueToInterface(cty.CapsuleVal(opaque, &struct{}{}))
	assert.ErrorContains(t, err, "unsupported cty.Type")
}
