// Package pipeline runs a document through transpile, extract, normalize
// and assemble, so annotations computed on a derived Go file come back in
// the coordinates of the document the caller handed in.
//
// Variants without a registered transpiler go straight to the extractor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"glint/internal/annot"
	"glint/internal/extract"
	"glint/internal/observ"
	"glint/internal/remap"
	"glint/internal/source"
	"glint/internal/srcmap"
	"glint/internal/trace"
	"glint/internal/transpile"
)

// Transpiler turns a document into a derived file plus its source map.
type Transpiler interface {
	Transpile(ctx context.Context, code string) (*transpile.Output, error)
}

// Extractor computes annotations for a derived file.
type Extractor interface {
	Extract(ctx context.Context, code, variant string, opts extract.Options) (*annot.Result, error)
}

// Options configure a Pipeline.
type Options struct {
	// Extractor defaults to extract.New().
	Extractor Extractor
	// Variants defaults to DefaultVariants().
	Variants map[string]Variant
	// DefaultVariant is used when Run gets an empty variant.
	DefaultVariant string
	// CompilerOptions apply to every run; run options override them.
	CompilerOptions map[string]any
}

// RunOptions control one run.
type RunOptions struct {
	CompilerOptions map[string]any
	NoErrors        bool
	// Timings fills Result.Meta.Timings.
	Timings bool
}

// Func is a configured pipeline.
type Func func(ctx context.Context, code, variant string, opts RunOptions) (*annot.Result, error)

// Pipeline holds configuration only; concurrent runs share nothing mutable.
type Pipeline struct {
	extractor      Extractor
	variants       map[string]Variant
	defaultVariant string
	compilerOpts   map[string]any
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		extractor:      opts.Extractor,
		defaultVariant: opts.DefaultVariant,
		compilerOpts:   annot.CloneOptions(opts.CompilerOptions),
	}
	if p.extractor == nil {
		p.extractor = extract.New()
	}
	if p.defaultVariant == "" {
		p.defaultVariant = extract.VariantGo
	}
	variants := opts.Variants
	if variants == nil {
		variants = DefaultVariants()
	}
	p.variants = make(map[string]Variant, len(variants))
	for name, v := range variants {
		p.variants[name] = v
	}
	return p
}

// Create builds a pipeline and returns its Run method.
func Create(opts Options) Func {
	return New(opts).Run
}

// DefaultVariant returns the variant used for empty requests.
func (p *Pipeline) DefaultVariant() string { return p.defaultVariant }

// run is the per-call state.
type run struct {
	ctx     context.Context
	variant string
	timer   *observ.Timer
}

func (r *run) stage(st Stage, fn func(span *trace.Span) error) error {
	parent := trace.CurrentSpan(r.ctx).SpanID
	span := trace.Begin(trace.FromContext(r.ctx), trace.ScopeStage, string(st), parent)
	span.WithExtra("variant", r.variant)
	idx := r.timer.Begin(string(st))

	err := fn(span)

	detail := ""
	if err != nil {
		detail = err.Error()
	}
	r.timer.End(idx, detail)
	span.End(detail)
	if err != nil {
		return &StageError{Stage: st, Variant: r.variant, Err: err}
	}
	return nil
}

// Run annotates code. The result's Code is always code itself and its
// node positions index into code.
func (p *Pipeline) Run(ctx context.Context, code, variant string, opts RunOptions) (*annot.Result, error) {
	if variant == "" {
		variant = p.defaultVariant
	}
	parent := trace.CurrentSpan(ctx).SpanID
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDocument, "run", parent)
	span.WithExtra("variant", variant)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	r := &run{ctx: ctx, variant: variant, timer: observ.NewTimer()}
	var (
		res *annot.Result
		err error
	)
	if v, ok := p.variants[variant]; ok && v.Transpiler != nil {
		res, err = p.runTranspiled(r, code, v, opts)
	} else {
		res, err = p.runDirect(r, code, opts)
	}
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	if opts.Timings {
		res.Meta.Timings = r.timer.Durations()
	}
	span.WithExtra("nodes", strconv.Itoa(len(res.Nodes)))
	span.End("")
	return res, nil
}

// runDirect is the pass-through: the extractor's result is returned as is.
func (p *Pipeline) runDirect(r *run, code string, opts RunOptions) (*annot.Result, error) {
	var res *annot.Result
	err := r.stage(StageExtract, func(span *trace.Span) error {
		var err error
		res, err = p.extractor.Extract(r.ctx, code, r.variant, extract.Options{
			CompilerOptions: overlay(p.compilerOpts, opts.CompilerOptions),
			NoErrors:        opts.NoErrors,
		})
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("%w: extractor returned no result", ErrContractViolation)
		}
		span.WithExtra("nodes", strconv.Itoa(len(res.Nodes)))
		return nil
	})
	return res, err
}

func (p *Pipeline) runTranspiled(r *run, code string, v Variant, opts RunOptions) (*annot.Result, error) {
	var (
		out     *transpile.Output
		table   *srcmap.Table
		derived *annot.Result
		nodes   []annot.Node
		merged  map[string]any
	)

	err := r.stage(StageTranspile, func(span *trace.Span) error {
		var err error
		out, err = transpileWith(r.ctx, v.Transpiler, code)
		if err != nil {
			return err
		}
		table, err = srcmap.Parse(out.Map)
		if err != nil {
			return err
		}
		span.WithExtra("mappings", strconv.Itoa(table.Len())).
			WithExtra("renders", strconv.Itoa(out.Renders))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageExtract, func(span *trace.Span) error {
		var err error
		merged, err = mergeOptions(v, p.compilerOpts, opts.CompilerOptions)
		if err != nil {
			return err
		}
		derived, err = p.extractor.Extract(r.ctx, out.Code, v.Target, extract.Options{
			CompilerOptions: merged,
			NoErrors:        opts.NoErrors,
			FileName:        v.FileName,
		})
		if err != nil {
			return err
		}
		if derived == nil {
			return fmt.Errorf("%w: extractor returned no result", ErrContractViolation)
		}
		span.WithExtra("nodes", strconv.Itoa(len(derived.Nodes)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageNormalize, func(span *trace.Span) error {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		var (
			stats remap.Stats
			err   error
		)
		nodes, stats, err = remap.Normalize(derived.Nodes, table, source.NewConverter(code), remap.Options{
			SyntheticTargets:  v.SyntheticTargets,
			SyntheticPrefixes: v.SyntheticPrefixes,
		})
		if err != nil {
			return err
		}
		span.WithExtra("kept", strconv.Itoa(stats.Output)).
			WithExtra("dropped", strconv.Itoa(stats.Dropped())).
			WithExtra("collapsed", strconv.Itoa(stats.Collapsed))
		return nil
	})
	if err != nil {
		return nil, err
	}

	var res *annot.Result
	err = r.stage(StageAssemble, func(span *trace.Span) error {
		annot.Sort(nodes)
		if tracer := trace.FromContext(r.ctx); trace.Emits(tracer, trace.ScopeNode) {
			for i := range nodes {
				n := &nodes[i]
				trace.Point(tracer, trace.ScopeNode, n.Kind.String(), fmt.Sprintf("%d:%d+%d", n.Line, n.Character, n.Length), span.ID())
			}
		}
		res = &annot.Result{
			Code:  code,
			Nodes: nodes,
			Meta: annot.Meta{
				Variant:         r.variant,
				CompilerOptions: merged,
			},
		}
		return nil
	})
	return res, err
}

// transpileWith calls t and classifies its failures: anything that is not a
// context error counts as a rejected document.
func transpileWith(ctx context.Context, t Transpiler, code string) (*transpile.Output, error) {
	out, err := t.Transpile(ctx, code)
	switch {
	case err == nil:
	case errors.Is(err, ErrTranspile), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrTranspile, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: transpiler returned no output", ErrContractViolation)
	}
	return out, nil
}

// Transpile runs only the transpile stage of variant.
func (p *Pipeline) Transpile(ctx context.Context, code, variant string) (*transpile.Output, error) {
	if variant == "" {
		variant = p.defaultVariant
	}
	v, ok := p.variants[variant]
	if !ok || v.Transpiler == nil {
		return nil, &StageError{Stage: StageTranspile, Variant: variant, Err: ErrNotTranspiled}
	}
	out, err := transpileWith(ctx, v.Transpiler, code)
	if err != nil {
		return nil, &StageError{Stage: StageTranspile, Variant: variant, Err: err}
	}
	return out, nil
}
