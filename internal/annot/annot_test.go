package annot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInternal(t *testing.T) {
	assert.False(t, (&Node{}).IsInternal())
	assert.False(t, (&Node{Tags: []string{"public"}}).IsInternal())
	assert.True(t, (&Node{Tags: []string{"internal"}}).IsInternal())
	assert.True(t, (&Node{Tags: []string{"x", "svelte-internal"}}).IsInternal())
}

func TestSortIsStable(t *testing.T) {
	nodes := []Node{
		{Kind: KindHover, Start: 9, Target: "c"},
		{Kind: KindHover, Start: 2, Target: "a"},
		{Kind: KindError, Start: 9, Target: "d"},
		{Kind: KindHover, Start: 2, Target: "b"},
	}
	Sort(nodes)
	var got []string
	for _, n := range nodes {
		got = append(got, n.Target)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestResultViews(t *testing.T) {
	r := &Result{Nodes: []Node{
		{Kind: KindHover, Target: "x"},
		{Kind: KindError, Severity: SevWarning},
		{Kind: KindQuery},
		{Kind: KindTag, Name: "errors"},
		{Kind: KindCompletion},
	}}
	assert.Len(t, r.Hovers(), 1)
	assert.Len(t, r.Errors(), 1)
	assert.Len(t, r.Queries(), 1)
	assert.Len(t, r.Tags(), 1)
	assert.Len(t, r.Completions(), 1)
	assert.Empty(t, r.Highlights())
	assert.False(t, r.HasErrors())

	r.Nodes = append(r.Nodes, Node{Kind: KindError, Severity: SevError})
	assert.True(t, r.HasErrors())

	r.Filter(KindHover, KindTag)
	require.Len(t, r.Nodes, 2)
	assert.Equal(t, KindHover, r.Nodes[0].Kind)
	assert.Equal(t, KindTag, r.Nodes[1].Kind)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("diagnostic")
	assert.False(t, ok)
}
