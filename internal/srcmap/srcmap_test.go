package srcmap

import (
	"math"
	"strings"
	"testing"

	"github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQRoundTrip(t *testing.T) {
	values := []int{0, 1, -1, 15, 16, -16, 31, 32, 1000, -123456, math.MaxInt32, -math.MaxInt32}
	for _, v := range values {
		var sb strings.Builder
		appendVLQ(&sb, v)
		got, next, err := decodeVLQ(sb.String(), 0)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, sb.Len(), next)
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	cases := map[string]int{"A": 0, "C": 1, "D": -1, "gB": 16, "L": -5, "O": 7}
	for enc, want := range cases {
		got, _, err := decodeVLQ(enc, 0)
		require.NoError(t, err, enc)
		assert.Equal(t, want, got, enc)
	}
}

func TestVLQErrors(t *testing.T) {
	_, _, err := decodeVLQ("g", 0)
	assert.ErrorIs(t, err, errVLQUnterminated)

	_, _, err = decodeVLQ("!", 0)
	assert.Error(t, err)

	_, _, err = decodeVLQ("gggggggB", 0)
	assert.ErrorIs(t, err, errVLQOverflow)
}

func sampleBuilder() *Builder {
	b := NewBuilder("page.go")
	src := b.AddSource("page.gohtml", "")
	b.AddMapping(0, 0, src, 0, 0)
	b.AddMapping(0, 4, src, 0, 7)
	b.AddMapping(1, 0, src, 1, 2)
	return b
}

func TestBuilderMappings(t *testing.T) {
	mappings, err := sampleBuilder().Mappings()
	require.NoError(t, err)
	assert.Equal(t, "AAAA,IAAO;AACL", mappings)
}

func TestResolveSameLineOnly(t *testing.T) {
	b := sampleBuilder()
	b.AddSynthetic(1, 3)
	payload, err := b.Payload()
	require.NoError(t, err)

	table, err := Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Version())
	assert.Equal(t, []string{"page.gohtml"}, table.Sources())
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, "page.go", table.File())

	orig, ok := table.Resolve(0, 5)
	require.True(t, ok)
	assert.Equal(t, Original{Source: "page.gohtml", Line: 0, Col: 7}, orig)

	orig, ok = table.Resolve(0, 3)
	require.True(t, ok)
	assert.Equal(t, 0, orig.Col)

	orig, ok = table.Resolve(1, 2)
	require.True(t, ok)
	assert.Equal(t, Original{Source: "page.gohtml", Line: 1, Col: 2}, orig)

	// синтетический сегмент перекрывает остаток строки
	_, ok = table.Resolve(1, 3)
	assert.False(t, ok)
	_, ok = table.Resolve(1, 40)
	assert.False(t, ok)

	// строки без сегментов не наследуют предыдущую строку
	_, ok = table.Resolve(2, 0)
	assert.False(t, ok)
	_, ok = table.Resolve(-1, 0)
	assert.False(t, ok)
}

func TestResolveBeforeFirstSegment(t *testing.T) {
	b := NewBuilder("")
	src := b.AddSource("a", "")
	b.AddMapping(0, 4, src, 0, 0)
	payload, err := b.Payload()
	require.NoError(t, err)
	table, err := Parse(payload)
	require.NoError(t, err)

	_, ok := table.Resolve(0, 3)
	assert.False(t, ok)
	_, ok = table.Resolve(0, 4)
	assert.True(t, ok)
}

func TestParseVersionEncodings(t *testing.T) {
	numeric := `{"version":3,"sources":["a"],"names":[],"mappings":"AAAA"}`
	textual := `{"version":"3","sources":["a"],"names":[],"mappings":"AAAA"}`

	for _, p := range []string{numeric, textual} {
		table, err := Parse(Payload(p))
		require.NoError(t, err, p)
		assert.Equal(t, 3, table.Version())
		_, ok := table.Resolve(0, 0)
		assert.True(t, ok)
	}

	b := sampleBuilder()
	b.StringVersion(true)
	payload, err := b.Payload()
	require.NoError(t, err)
	assert.Contains(t, payload.String(), `"version":"3"`)
	_, err = Parse(payload)
	require.NoError(t, err)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":             ``,
		"not json":          `{"version":`,
		"missing version":   `{"sources":["a"],"mappings":"AAAA"}`,
		"null version":      `{"version":null,"sources":["a"],"mappings":"AAAA"}`,
		"wrong version":     `{"version":2,"sources":["a"],"mappings":"AAAA"}`,
		"garbage version":   `{"version":"three","sources":["a"],"mappings":"AAAA"}`,
		"missing sources":   `{"version":3,"mappings":"AAAA"}`,
		"missing mappings":  `{"version":3,"sources":["a"]}`,
		"bad vlq":           `{"version":3,"sources":["a"],"mappings":"A!AA"}`,
		"two fields":        `{"version":3,"sources":["a"],"mappings":"AA"}`,
		"three fields":      `{"version":3,"sources":["a"],"mappings":"AAA"}`,
		"six fields":        `{"version":3,"sources":["a"],"names":["x"],"mappings":"AAAAAA"}`,
		"negative column":   `{"version":3,"sources":["a"],"mappings":"D"}`,
		"negative line":     `{"version":3,"sources":["a"],"mappings":"AADA"}`,
		"source range":      `{"version":3,"sources":["a"],"mappings":"ACAA"}`,
		"name range":        `{"version":3,"sources":["a"],"names":[],"mappings":"AAAAA"}`,
		"inverted mappings": `{"version":3,"sources":["a"],"mappings":"AAAK,CAAD"}`,
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(Payload(p))
			require.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestParseToleratesEmptySegments(t *testing.T) {
	table, err := Parse(Payload(`{"version":3,"sources":["a"],"mappings":",,AAAA;;IAAC,"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	orig, ok := table.Resolve(2, 4)
	require.True(t, ok)
	assert.Equal(t, 1, orig.Col)
}

func TestMonotonicityIsPerSource(t *testing.T) {
	b := NewBuilder("")
	a := b.AddSource("a", "")
	c := b.AddSource("c", "")
	b.AddMapping(0, 0, a, 3, 0)
	b.AddMapping(0, 2, c, 0, 0)
	b.AddMapping(0, 4, a, 4, 0)
	payload, err := b.Payload()
	require.NoError(t, err)
	_, err = Parse(payload)
	require.NoError(t, err)

	b.AddMapping(1, 0, a, 1, 0)
	payload, err = b.Payload()
	require.NoError(t, err)
	_, err = Parse(payload)
	require.ErrorIs(t, err, ErrInvalidMapping)
}

func TestNamedMappings(t *testing.T) {
	b := NewBuilder("")
	src := b.AddSource("a", "")
	b.AddNamedMapping(0, 0, src, 0, 0, "world")
	b.AddNamedMapping(0, 6, src, 0, 9, "hello")
	b.AddNamedMapping(1, 0, src, 1, 0, "world")
	payload, err := b.Payload()
	require.NoError(t, err)

	table, err := Parse(payload)
	require.NoError(t, err)
	orig, ok := table.Resolve(1, 2)
	require.True(t, ok)
	assert.Equal(t, "world", orig.Name)
	orig, _ = table.Resolve(0, 7)
	assert.Equal(t, "hello", orig.Name)
}

func TestEntriesAreInDerivedOrder(t *testing.T) {
	b := NewBuilder("")
	src := b.AddSource("a", "")
	b.AddMapping(1, 0, src, 1, 0)
	b.AddSynthetic(0, 5)
	b.AddMapping(0, 0, src, 0, 0)
	payload, err := b.Payload()
	require.NoError(t, err)
	table, err := Parse(payload)
	require.NoError(t, err)

	entries := table.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{GenLine: 0, GenCol: 0, Source: 0, OrigLine: 0, OrigCol: 0, Name: -1}, entries[0])
	assert.True(t, entries[1].Synthetic())
	assert.Equal(t, 1, entries[2].GenLine)
}

// An independent decoder must agree with Resolve on fully mapped lines.
func TestResolveAgreesWithGoSourcemap(t *testing.T) {
	b := NewBuilder("page.go")
	src := b.AddSource("page.gohtml", "")
	type gen struct{ line, col, oline, ocol int }
	segs := []gen{
		{0, 0, 1, 0}, {0, 3, 1, 4}, {0, 9, 1, 12},
		{1, 0, 2, 0}, {1, 1, 2, 2}, {1, 20, 3, 1},
		{3, 0, 5, 0}, {3, 7, 5, 7},
	}
	for _, s := range segs {
		b.AddMapping(s.line, s.col, src, s.oline, s.ocol)
	}
	payload, err := b.Payload()
	require.NoError(t, err)

	table, err := Parse(payload)
	require.NoError(t, err)
	consumer, err := sourcemap.Parse("", payload)
	require.NoError(t, err)

	for _, line := range []int{0, 1, 3} {
		for col := 0; col < 30; col++ {
			orig, ok := table.Resolve(line, col)
			require.True(t, ok, "%d:%d", line, col)

			file, _, oline, ocol, ok := consumer.Source(line+1, col)
			require.True(t, ok, "%d:%d", line, col)
			assert.Equal(t, file, orig.Source)
			assert.Equal(t, oline-1, orig.Line, "%d:%d", line, col)
			assert.Equal(t, ocol, orig.Col, "%d:%d", line, col)
		}
	}
}
