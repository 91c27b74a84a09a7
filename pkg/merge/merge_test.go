package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label struct {
	Text  string
	Size  int
	Tags  []string
	Parts map[string]label
}

type labelOverride struct {
	Text  *string
	Size  *int
	Tags  *[]string
	Parts map[string]labelOverride
}

func (o labelOverride) Apply(base label) label {
	out := base
	Value(&out.Text, o.Text)
	Value(&out.Size, o.Size)
	out.Tags = Slice(base.Tags, o.Tags)
	if len(o.Parts) > 0 || base.Parts != nil {
		out.Parts = Map(base.Parts, o.Parts, func() label { return label{Size: 1} })
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestValue(t *testing.T) {
	v := 3
	Value(&v, nil)
	assert.Equal(t, 3, v)
	Value(&v, ptr(9))
	assert.Equal(t, 9, v)
}

func TestPick(t *testing.T) {
	assert.Nil(t, Pick[int](nil, nil))
	assert.Equal(t, 1, *Pick(ptr(1), nil))
	assert.Equal(t, 2, *Pick(ptr(1), ptr(2)))
	assert.Equal(t, 2, *Pick(nil, ptr(2)))
}

func TestSliceReplacesWholeAndCopies(t *testing.T) {
	base := []string{"a", "b"}
	got := Slice(base, nil)
	require.Equal(t, base, got)
	got[0] = "z"
	assert.Equal(t, "a", base[0])

	got = Slice(base, &[]string{"c"})
	assert.Equal(t, []string{"c"}, got)
	assert.Nil(t, Slice[string](nil, nil))
}

func TestApplyIdentity(t *testing.T) {
	base := label{Text: "x", Size: 4, Tags: []string{"t"}}
	assert.Equal(t, base, Apply(base, labelOverride{}))
	assert.Equal(t, base, Apply[label, labelOverride](base))
}

func TestApplyDisjointOverridesCommute(t *testing.T) {
	base := label{Text: "x", Size: 4}
	a := labelOverride{Size: ptr(20)}
	b := labelOverride{Text: ptr("red")}

	assert.Equal(t, Apply(base, a, b), Apply(base, b, a))
	assert.Equal(t, label{Text: "red", Size: 20}, Apply(base, a, b))
}

func TestApplyLastWriteWins(t *testing.T) {
	base := label{Text: "x", Size: 4}
	got := Apply(base, labelOverride{Size: ptr(5)}, labelOverride{Size: ptr(6)})
	assert.Equal(t, 6, got.Size)
	assert.Equal(t, "x", got.Text)
}

func TestMapInsertsFreshAndMergesExisting(t *testing.T) {
	base := map[string]label{"clock": {Text: "c", Size: 8}}
	over := map[string]labelOverride{
		"clock":   {Text: ptr("C")},
		"battery": {Text: ptr("B")},
	}

	got := Map(base, over, func() label { return label{Size: 1} })
	assert.Equal(t, label{Text: "C", Size: 8}, got["clock"])
	assert.Equal(t, label{Text: "B", Size: 1}, got["battery"])
	assert.Len(t, base, 1, "base must not be mutated")
	assert.Equal(t, "c", base["clock"].Text)
}

func TestComposeMergesKeys(t *testing.T) {
	then := func(a, b labelOverride) labelOverride {
		return labelOverride{Text: Pick(a.Text, b.Text), Size: Pick(a.Size, b.Size)}
	}
	prev := map[string]labelOverride{"a": {Text: ptr("1")}}
	next := map[string]labelOverride{"a": {Size: ptr(2)}, "b": {Size: ptr(3)}}

	got := Compose(prev, next, then)
	require.Len(t, got, 2)
	assert.Equal(t, "1", *got["a"].Text)
	assert.Equal(t, 2, *got["a"].Size)
	assert.Equal(t, 3, *got["b"].Size)
	assert.Nil(t, Compose[string, labelOverride](nil, nil, then))
}
