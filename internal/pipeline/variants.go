package pipeline

import (
	"sort"

	"glint/internal/extract"
	"glint/internal/transpile"
)

// VariantGoHTML is the templated document kind.
const VariantGoHTML = "gohtml"

// Variant describes a document kind that is transpiled before extraction.
type Variant struct {
	Transpiler Transpiler
	// Target is the variant handed to the extractor.
	Target string
	// RequiredTypes are always present in the "types" compiler option.
	RequiredTypes []string
	// Defaults are the lowest precedence compiler options.
	Defaults map[string]any
	// SyntheticTargets and SyntheticPrefixes name transpiler scaffolding.
	SyntheticTargets  []string
	SyntheticPrefixes []string
	// FileName is the derived file name given to the extractor.
	FileName string
}

// DefaultVariants returns the variants glint ships with.
func DefaultVariants() map[string]Variant {
	return map[string]Variant{
		VariantGoHTML: {
			Transpiler:    transpile.New(transpile.Options{}),
			Target:        extract.VariantGo,
			RequiredTypes: []string{extract.MarkupShims},
			Defaults: map[string]any{
				extract.OptGoVersion: "go1.22",
				extract.OptStrict:    false,
			},
			SyntheticTargets: []string{
				transpile.MarkupIdent,
				transpile.LoopValue,
				transpile.LoopKey,
			},
			SyntheticPrefixes: []string{transpile.RenderPrefix},
			FileName:          transpile.DefaultPackage + ".go",
		},
	}
}

// Variants lists the transpiled variants in name order.
func (p *Pipeline) Variants() []string {
	names := make([]string, 0, len(p.variants))
	for name := range p.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
