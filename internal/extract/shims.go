package extract

import (
	"sort"
)

// MarkupShims declares the sink gohtml render functions write into.
const MarkupShims = "markup-shims"

// Shim bodies carry no package clause; the checked file's one is prepended.
const markupShim = `
// markupSink receives the interpolated values of a gohtml document.
type markupSink struct{}

// Emit evaluates values for rendering.
func (markupSink) Emit(values ...any) {}

var __markup markupSink
`

// RegisterShim makes src available under name for the "types" compiler
// option. A later registration replaces an earlier one.
func (e *Extractor) RegisterShim(name, src string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shims[name] = src
}

// Shims returns the registered shim names, sorted.
func (e *Extractor) Shims() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.shims))
	for name := range e.shims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Extractor) shim(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, ok := e.shims[name]
	return src, ok
}
