package remap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glint/internal/annot"
	"glint/internal/source"
	"glint/internal/srcmap"
)

// shiftResolver maps derived line L to original line L-offset, column kept.
// Lines listed in synthetic are unmapped.
type shiftResolver struct {
	offset    int
	synthetic map[int]bool
}

func (r shiftResolver) Resolve(line, col int) (srcmap.Original, bool) {
	if r.synthetic[line] || line < r.offset {
		return srcmap.Original{}, false
	}
	return srcmap.Original{Source: "page.gohtml", Line: line - r.offset, Col: col}, true
}

const original = "<script>\n  var world = \"hello\"\n</script>\n"

func TestNormalizeRewritesPositions(t *testing.T) {
	conv := source.NewConverter(original)
	nodes := []annot.Node{
		{Kind: annot.KindHover, Line: 2, Character: 6, Length: 5, Target: "world", Text: "var world string"},
	}
	out, stats, err := Normalize(nodes, shiftResolver{offset: 1}, conv, Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	n := out[0]
	assert.Equal(t, 15, n.Start)
	assert.Equal(t, "world", original[n.Start:n.Start+n.Length])
	assert.Equal(t, 1, n.Line)
	assert.Equal(t, 6, n.Character)
	assert.Equal(t, "var world string", n.Text)
	assert.Equal(t, Stats{Input: 1, Output: 1}, stats)
}

func TestNormalizeDropsInternalAndSynthetic(t *testing.T) {
	conv := source.NewConverter(original)
	nodes := []annot.Node{
		{Kind: annot.KindHover, Line: 1, Character: 0, Target: "__markup"},
		{Kind: annot.KindHover, Line: 1, Character: 1, Target: "__render3"},
		{Kind: annot.KindHover, Line: 1, Character: 2, Target: "Emit", Tags: []string{"internal"}},
		{Kind: annot.KindHover, Line: 1, Character: 3, Target: "world"},
	}
	opts := Options{SyntheticTargets: []string{"__markup"}, SyntheticPrefixes: []string{"__render"}}
	out, stats, err := Normalize(nodes, shiftResolver{}, conv, opts)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "world", out[0].Target)
	assert.Equal(t, 1, stats.Internal)
	assert.Equal(t, 2, stats.Synthetic)
	assert.Equal(t, 3, stats.Dropped())
}

func TestNormalizeDropsUnmapped(t *testing.T) {
	conv := source.NewConverter(original)
	nodes := []annot.Node{
		{Kind: annot.KindError, Line: 0, Character: 0, Text: "in scaffolding"},
		{Kind: annot.KindError, Line: 1, Character: 2, Text: "in script"},
		{Kind: annot.KindError, Line: 3, Character: 0, Text: "in generated func"},
	}
	r := shiftResolver{offset: 0, synthetic: map[int]bool{0: true, 3: true}}
	out, stats, err := Normalize(nodes, r, conv, Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "in script", out[0].Text)
	assert.Equal(t, 2, stats.Unmapped)
}

func TestNormalizeLastWinsOnAdjacentCollision(t *testing.T) {
	conv := source.NewConverter(original)
	nodes := []annot.Node{
		{Kind: annot.KindHover, Line: 1, Character: 6, Text: "first"},
		{Kind: annot.KindHover, Line: 1, Character: 6, Text: "second"},
		{Kind: annot.KindHover, Line: 1, Character: 6, Text: "third"},
		{Kind: annot.KindError, Line: 1, Character: 6, Text: "other kind"},
	}
	out, stats, err := Normalize(nodes, shiftResolver{}, conv, Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "third", out[0].Text)
	assert.Equal(t, "other kind", out[1].Text)
	assert.Equal(t, 2, stats.Collapsed)
}

func TestNormalizeKeepsSeparatedCollisions(t *testing.T) {
	conv := source.NewConverter(original)
	nodes := []annot.Node{
		{Kind: annot.KindHover, Line: 1, Character: 6, Text: "a"},
		{Kind: annot.KindError, Line: 1, Character: 2, Text: "between"},
		{Kind: annot.KindHover, Line: 1, Character: 6, Text: "b"},
	}
	out, stats, err := Normalize(nodes, shiftResolver{}, conv, Options{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Zero(t, stats.Collapsed)
}

// Different derived positions collapsing onto one original index.
func TestNormalizeCollapsesAfterResolution(t *testing.T) {
	b := srcmap.NewBuilder("page.go")
	src := b.AddSource("page.gohtml", original)
	b.AddMapping(0, 0, src, 1, 6)
	b.AddMapping(1, 0, src, 1, 6)
	payload, err := b.Payload()
	require.NoError(t, err)
	table, err := srcmap.Parse(payload)
	require.NoError(t, err)

	nodes := []annot.Node{
		{Kind: annot.KindHover, Line: 0, Character: 0, Text: "early"},
		{Kind: annot.KindHover, Line: 1, Character: 3, Text: "late"},
	}
	out, _, err := Normalize(nodes, table, source.NewConverter(original), Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "late", out[0].Text)
	assert.Equal(t, 15, out[0].Start)
}

func TestNormalizeContractViolation(t *testing.T) {
	conv := source.NewConverter("short")
	nodes := []annot.Node{{Kind: annot.KindHover, Line: 5, Character: 0}}
	_, _, err := Normalize(nodes, shiftResolver{}, conv, Options{})
	require.ErrorIs(t, err, ErrContractViolation)
	assert.ErrorIs(t, err, source.ErrOutOfBounds)

	nodes = []annot.Node{{Kind: annot.KindHover, Line: 0, Character: 6}}
	_, _, err = Normalize(nodes, shiftResolver{}, conv, Options{})
	require.ErrorIs(t, err, ErrContractViolation)
}

func TestNormalizeNeverLeaksInternal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	conv := source.NewConverter(original)
	opts := Options{SyntheticTargets: []string{"__markup", "__v"}}
	targets := []string{"world", "__markup", "__v", "x", ""}
	for iter := 0; iter < 100; iter++ {
		nodes := make([]annot.Node, rng.Intn(20))
		for i := range nodes {
			nodes[i] = annot.Node{
				Kind:      annot.Kinds()[rng.Intn(3)],
				Line:      rng.Intn(3),
				Character: rng.Intn(3),
				Target:    targets[rng.Intn(len(targets))],
			}
			if rng.Intn(4) == 0 {
				nodes[i].Tags = []string{"internal"}
			}
		}
		out, stats, err := Normalize(nodes, shiftResolver{}, conv, opts)
		require.NoError(t, err)
		assert.Equal(t, stats.Input, stats.Output+stats.Dropped())
		for _, n := range out {
			assert.False(t, n.IsInternal())
			assert.False(t, opts.IsSynthetic(n.Target))
		}
	}
}
