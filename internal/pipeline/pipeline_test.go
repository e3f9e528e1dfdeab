package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glint/internal/annot"
	"glint/internal/extract"
	"glint/internal/srcmap"
	"glint/internal/trace"
	"glint/internal/transpile"
)

type fakeTranspiler struct {
	out *transpile.Output
	err error
}

func (f fakeTranspiler) Transpile(context.Context, string) (*transpile.Output, error) {
	return f.out, f.err
}

// recordingExtractor remembers its last call and answers with res.
type recordingExtractor struct {
	calls   int
	code    string
	variant string
	opts    extract.Options
	res     *annot.Result
}

func (r *recordingExtractor) Extract(_ context.Context, code, variant string, opts extract.Options) (*annot.Result, error) {
	r.calls++
	r.code, r.variant, r.opts = code, variant, opts
	return r.res, nil
}

func assertNodesIndexOriginal(t *testing.T, code string, nodes []annot.Node) {
	t.Helper()
	for _, n := range nodes {
		require.LessOrEqual(t, n.Start+n.Length, len(code))
		if n.Kind == annot.KindHover {
			assert.Equal(t, n.Target, code[n.Start:n.Start+n.Length])
		}
	}
}

func TestRunMapsHoverToOriginal(t *testing.T) {
	code := "\n<script>\n  var world = \"hello\"\n</script>\n"
	res, err := New(Options{}).Run(context.Background(), code, VariantGoHTML, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, code, res.Code)
	assert.Equal(t, VariantGoHTML, res.Meta.Variant)
	require.Len(t, res.Hovers(), 1)

	h := res.Hovers()[0]
	assert.Equal(t, "world", h.Target)
	assert.Equal(t, strings.Index(code, "world"), h.Start)
	assert.Equal(t, 2, h.Line)
	assert.Equal(t, 6, h.Character)
	assert.Equal(t, "var world string", h.Text)
}

func TestRunDropsScaffolding(t *testing.T) {
	code := "<script>\nvar items []string\n</script>\n<ul>{#each items as item}<li>{item}</li>{/each}</ul>\n<p>{missing}</p>\n"
	res, err := New(Options{}).Run(context.Background(), code, VariantGoHTML, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, code, res.Code)

	for _, n := range res.Nodes {
		assert.False(t, n.IsInternal())
		assert.NotContains(t, n.Target, "__")
	}
	assertNodesIndexOriginal(t, code, res.Nodes)

	var targets []string
	for _, h := range res.Hovers() {
		targets = append(targets, h.Target)
	}
	assert.Equal(t, []string{"items", "items", "item", "item"}, targets)

	errs := res.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Text, "undefined: missing")
	assert.Equal(t, strings.Index(code, "missing"), errs[0].Start)
	assert.Equal(t, 4, errs[0].Line)

	for i := 1; i < len(res.Nodes); i++ {
		assert.LessOrEqual(t, res.Nodes[i-1].Start, res.Nodes[i].Start)
	}
}

func TestRunTranspileError(t *testing.T) {
	ext := &recordingExtractor{}
	p := New(Options{Extractor: ext})
	_, err := p.Run(context.Background(), "{#if x}", VariantGoHTML, RunOptions{})
	require.ErrorIs(t, err, ErrTranspile)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageTranspile, serr.Stage)
	assert.Equal(t, VariantGoHTML, serr.Variant)
	assert.Zero(t, ext.calls)

	boom := errors.New("boom")
	v := DefaultVariants()[VariantGoHTML]
	v.Transpiler = fakeTranspiler{err: boom}
	p = New(Options{Extractor: ext, Variants: map[string]Variant{"x": v}})
	_, err = p.Run(context.Background(), "", "x", RunOptions{})
	assert.ErrorIs(t, err, ErrTranspile)
	assert.ErrorIs(t, err, boom)
}

func TestRunRejectsMalformedInterpolation(t *testing.T) {
	code := "<script>\nvar a = 1\n</script>\n<p>{a.}</p>\n<p>{undefinedThing}</p>\n"
	res, err := New(Options{}).Run(context.Background(), code, VariantGoHTML, RunOptions{})
	require.ErrorIs(t, err, ErrTranspile)
	assert.Nil(t, res)

	var terr *transpile.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 3, terr.Line)
	assert.Equal(t, 3, terr.Column)
}

func TestRunInvalidMapping(t *testing.T) {
	ext := &recordingExtractor{}
	v := DefaultVariants()[VariantGoHTML]
	v.Transpiler = fakeTranspiler{out: &transpile.Output{
		Code: "package page\n",
		Map:  srcmap.Payload(`{"sources":["page.gohtml"]}`),
	}}
	p := New(Options{Extractor: ext, Variants: map[string]Variant{"x": v}})

	_, err := p.Run(context.Background(), "doc", "x", RunOptions{})
	require.ErrorIs(t, err, ErrInvalidMapping)
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageTranspile, serr.Stage)
	assert.Zero(t, ext.calls)
}

func TestRunContractViolations(t *testing.T) {
	b := srcmap.NewBuilder("page.go")
	src := b.AddSource("page.gohtml", "short")
	b.AddSynthetic(0, 0)
	b.AddMapping(1, 4, src, 50, 0)
	payload, err := b.Payload()
	require.NoError(t, err)

	v := DefaultVariants()[VariantGoHTML]
	v.Transpiler = fakeTranspiler{out: &transpile.Output{Code: "package page\nvar x = 1\n", Map: payload}}
	p := New(Options{Variants: map[string]Variant{"x": v}})

	_, err = p.Run(context.Background(), "short", "x", RunOptions{})
	require.ErrorIs(t, err, ErrContractViolation)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageNormalize, serr.Stage)

	v.Transpiler = fakeTranspiler{}
	p = New(Options{Variants: map[string]Variant{"x": v}})
	_, err = p.Run(context.Background(), "short", "x", RunOptions{})
	assert.ErrorIs(t, err, ErrContractViolation)

	ext := &recordingExtractor{}
	p = New(Options{Extractor: ext})
	_, err = p.Run(context.Background(), "<script>var a = 1</script>", VariantGoHTML, RunOptions{})
	require.ErrorIs(t, err, ErrContractViolation)
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageExtract, serr.Stage)
}

func TestRunMergesCompilerOptions(t *testing.T) {
	ext := &recordingExtractor{res: &annot.Result{}}
	p := New(Options{
		Extractor:       ext,
		CompilerOptions: map[string]any{extract.OptGoVersion: "go1.21", extract.OptStrict: true, "a": 1},
	})
	res, err := p.Run(context.Background(), "<script>var a = 1</script>", VariantGoHTML, RunOptions{
		CompilerOptions: map[string]any{extract.OptGoVersion: "go1.23", extract.OptTypes: []any{"props", extract.MarkupShims, "props"}},
		NoErrors:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, extract.VariantGo, ext.variant)
	assert.Equal(t, "page.go", ext.opts.FileName)
	assert.True(t, ext.opts.NoErrors)
	assert.True(t, strings.HasPrefix(ext.code, "package page\n"))

	want := map[string]any{
		extract.OptGoVersion: "go1.23",
		extract.OptStrict:    true,
		extract.OptTypes:     []string{"props", extract.MarkupShims},
		"a":                  1,
	}
	assert.Equal(t, want, ext.opts.CompilerOptions)
	assert.Equal(t, want, res.Meta.CompilerOptions)
	assert.Equal(t, VariantGoHTML, res.Meta.Variant)
}

func TestMergeOptionsAddsRequiredTypes(t *testing.T) {
	v := Variant{RequiredTypes: []string{"shim"}, Defaults: map[string]any{"d": 1}}

	got, err := mergeOptions(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"d": 1, extract.OptTypes: []string{"shim"}}, got)

	got, err = mergeOptions(v, map[string]any{extract.OptTypes: "x, y"}, map[string]any{"d": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "shim"}, got[extract.OptTypes])
	assert.Equal(t, 2, got["d"])

	_, err = mergeOptions(v, map[string]any{extract.OptTypes: 3})
	assert.ErrorIs(t, err, extract.ErrCompilerOption)

	got, err = mergeOptions(Variant{}, map[string]any{extract.OptTypes: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, got[extract.OptTypes])
}

func TestRunPassThrough(t *testing.T) {
	want := &annot.Result{Code: "derived?", Nodes: []annot.Node{{Kind: annot.KindHover, Start: 99}}}
	ext := &recordingExtractor{res: want}
	p := New(Options{Extractor: ext, CompilerOptions: map[string]any{"a": 1, "b": 1}})

	res, err := p.Run(context.Background(), "package main\n", "", RunOptions{CompilerOptions: map[string]any{"b": 2}})
	require.NoError(t, err)
	assert.Same(t, want, res)
	assert.Equal(t, extract.VariantGo, ext.variant)
	assert.Equal(t, "package main\n", ext.code)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, ext.opts.CompilerOptions)

	_, err = New(Options{}).Run(context.Background(), "x", "ts", RunOptions{})
	require.ErrorIs(t, err, extract.ErrUnsupportedVariant)
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageExtract, serr.Stage)
}

func TestRunTimingsAndTrace(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)

	res, err := Create(Options{})(ctx, "<script>var a = 1</script>", VariantGoHTML, RunOptions{Timings: true})
	require.NoError(t, err)
	for _, st := range []Stage{StageTranspile, StageExtract, StageNormalize, StageAssemble} {
		assert.Contains(t, res.Meta.Timings, string(st))
	}

	var runID uint64
	stages := map[string]uint64{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanEnd {
			continue
		}
		switch ev.Scope {
		case trace.ScopeDocument:
			runID = ev.SpanID
			assert.Equal(t, VariantGoHTML, ev.Extra["variant"])
		case trace.ScopeStage:
			stages[ev.Name] = ev.ParentID
		}
	}
	require.NotZero(t, runID)
	require.Len(t, stages, 4)
	for name, parent := range stages {
		assert.Equal(t, runID, parent, name)
	}

	quiet, err := New(Options{}).Run(context.Background(), "<script>var a = 1</script>", VariantGoHTML, RunOptions{})
	require.NoError(t, err)
	assert.Nil(t, quiet.Meta.Timings)
}

func TestRunTracesNodesAtDebug(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)

	code := "<script>\nvar world = \"hello\"\n</script>\n<p>{world}</p>\n"
	res, err := New(Options{}).Run(ctx, code, VariantGoHTML, RunOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Nodes)

	var (
		assembleID uint64
		renders    string
		points     []trace.Event
	)
	for _, ev := range ring.Snapshot() {
		switch {
		case ev.Kind == trace.KindPoint && ev.Scope == trace.ScopeNode:
			points = append(points, ev)
		case ev.Kind == trace.KindSpanEnd && ev.Name == string(StageTranspile):
			renders = ev.Extra["renders"]
		case ev.Kind == trace.KindSpanEnd && ev.Name == string(StageAssemble):
			assembleID = ev.SpanID
		}
	}
	assert.Equal(t, "1", renders)
	require.Len(t, points, len(res.Nodes))
	for i, ev := range points {
		assert.Equal(t, assembleID, ev.ParentID)
		assert.Equal(t, res.Nodes[i].Kind.String(), ev.Name)
	}

	ring = trace.NewRingTracer(256, trace.LevelDetail)
	_, err = New(Options{}).Run(trace.WithTracer(context.Background(), ring), code, VariantGoHTML, RunOptions{})
	require.NoError(t, err)
	for _, ev := range ring.Snapshot() {
		assert.NotEqual(t, trace.ScopeNode, ev.Scope)
	}
}

func TestTranspileOnly(t *testing.T) {
	p := New(Options{})
	assert.Equal(t, []string{VariantGoHTML}, p.Variants())
	assert.Equal(t, extract.VariantGo, p.DefaultVariant())

	out, err := p.Transpile(context.Background(), "<script>var a = 1</script>", VariantGoHTML)
	require.NoError(t, err)
	assert.Equal(t, "package page\nvar a = 1\n", out.Code)

	_, err = p.Transpile(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrNotTranspiled)
}

func TestRunConcurrent(t *testing.T) {
	run := Create(Options{})
	docs := []string{
		"<script>\nvar a = 1\n</script>\n<p>{a}</p>\n",
		"<script>\nvar b = \"x\"\n</script>\n{#if b != \"\"}<b>{b}</b>{/if}\n",
	}
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(code string) {
			res, err := run(context.Background(), code, VariantGoHTML, RunOptions{})
			if err == nil && res.Code != code {
				err = errors.New("code not restored")
			}
			done <- err
		}(docs[i%len(docs)])
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
