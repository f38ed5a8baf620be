package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrow(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 2.5, 2.5, true},
		{"安全范围内的整数", int64(30), 30, true},
		{"最大安全整数", int64(MaxSafeInteger), float64(MaxSafeInteger), true},
		{"超出安全范围", int64(MaxSafeInteger + 1), 0, false},
		{"负数超出安全范围", int64(-MaxSafeInteger - 1), 0, false},
		{"字符串", "12", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Narrow(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSizeSelector(t *testing.T) {
	sel, err := ParseSizeSelector(5)
	require.NoError(t, err)
	assert.True(t, sel.IsLiteral)
	assert.Equal(t, 5.0, sel.Literal)

	sel, err = ParseSizeSelector("pagerank")
	require.NoError(t, err)
	assert.False(t, sel.IsLiteral)
	assert.Equal(t, "pagerank", sel.Property)

	sel, err = ParseSizeSelector(nil)
	require.NoError(t, err)
	assert.Equal(t, SizeSelector{}, sel)

	_, err = ParseSizeSelector(true)
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestCaptionSelector_Resolve(t *testing.T) {
	hidden, err := ParseCaptionSelector(false)
	require.NoError(t, err)
	assert.Equal(t, "", hidden.Resolve("KNOWS"))

	shown, err := ParseCaptionSelector(true)
	require.NoError(t, err)
	assert.Equal(t, "KNOWS", shown.Resolve("KNOWS"))

	text, err := ParseCaptionSelector("Friend")
	require.NoError(t, err)
	assert.Equal(t, "Friend", text.Resolve("KNOWS"))

	empty, err := ParseCaptionSelector("")
	require.NoError(t, err)
	assert.Equal(t, "KNOWS", empty.Resolve("KNOWS"))

	assert.Equal(t, "KNOWS", CaptionSelector{}.Resolve("KNOWS"))

	_, err = ParseCaptionSelector(3)
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(true)
	assert.Equal(t, "dot", opts.Nodes.Shape)
	assert.Equal(t, 26, opts.Nodes.Font.Size)
	assert.Equal(t, 7, opts.Nodes.Font.StrokeWidth)
	assert.True(t, opts.Nodes.Scaling.Label.Enabled)
	assert.True(t, opts.Edges.Arrows.To.Enabled)
	assert.False(t, opts.Layout.ImprovedLayout)
	assert.True(t, opts.Physics.Enabled)
	assert.Equal(t, 0.4, opts.Physics.Timestep)

	assert.False(t, NewOptions(false).Edges.Arrows.To.Enabled)
}

func TestElementKinds(t *testing.T) {
	elems := []Element{Entity{ID: 1}, Relation{ID: 2}, Scalar{Value: 3}}
	kinds := make([]Kind, 0, len(elems))
	for _, e := range elems {
		kinds = append(kinds, e.Kind())
	}
	assert.Equal(t, []Kind{KindEntity, KindRelation, KindScalar}, kinds)
	assert.Equal(t, "", Entity{}.FirstLabel())
	assert.Equal(t, "Person", Entity{Labels: []string{"Person", "Actor"}}.FirstLabel())
}
