package annot

import (
	"sort"
	"time"
)

// Meta carries run metadata alongside the nodes.
type Meta struct {
	// Variant is the document kind the caller asked for.
	Variant         string         `json:"variant"`
	CompilerOptions map[string]any `json:"compilerOptions,omitempty"`

	// Timings are per-stage durations, filled on request.
	Timings map[string]time.Duration `json:"timings,omitempty"`
}

// Result is what one pipeline run returns.
type Result struct {
	Code  string `json:"code"`
	Nodes []Node `json:"nodes"`
	Meta  Meta   `json:"meta"`
}

func (r *Result) ofKind(k Kind) []Node {
	var out []Node
	for i := range r.Nodes {
		if r.Nodes[i].Kind == k {
			out = append(out, r.Nodes[i])
		}
	}
	return out
}

func (r *Result) Hovers() []Node      { return r.ofKind(KindHover) }
func (r *Result) Queries() []Node     { return r.ofKind(KindQuery) }
func (r *Result) Errors() []Node      { return r.ofKind(KindError) }
func (r *Result) Completions() []Node { return r.ofKind(KindCompletion) }
func (r *Result) Tags() []Node        { return r.ofKind(KindTag) }
func (r *Result) Highlights() []Node  { return r.ofKind(KindHighlight) }

// HasErrors возвращает true, если есть хотя бы один узел ошибки с Severity >= Error
func (r *Result) HasErrors() bool {
	for i := range r.Nodes {
		if r.Nodes[i].Kind == KindError && r.Nodes[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Filter keeps only nodes whose kind is in kinds; an empty set keeps all.
func (r *Result) Filter(kinds ...Kind) {
	if len(kinds) == 0 {
		return
	}
	keep := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}
	out := r.Nodes[:0]
	for _, n := range r.Nodes {
		if keep[n.Kind] {
			out = append(out, n)
		}
	}
	r.Nodes = out
}

// Sort orders nodes by Start, keeping emission order among equal starts.
func Sort(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Start < nodes[j].Start
	})
}

// CloneOptions returns a shallow copy of a compiler option map.
func CloneOptions(opts map[string]any) map[string]any {
	out := make(map[string]any, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}
