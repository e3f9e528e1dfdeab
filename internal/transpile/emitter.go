package transpile

import (
	"fmt"
	"strings"

	"glint/internal/source"
	"glint/internal/srcmap"
)

// emitter writes the derived file and records where every byte came from.
type emitter struct {
	sb     strings.Builder
	b      *srcmap.Builder
	src    string
	conv   *source.Converter
	source int

	line, col int // позиция в derived-тексте
}

func newEmitter(src string, conv *source.Converter, b *srcmap.Builder, sourceIdx int) *emitter {
	return &emitter{src: src, conv: conv, b: b, source: sourceIdx}
}

func (e *emitter) advance(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			e.line++
			e.col = 0
		} else {
			e.col++
		}
	}
}

// synthetic writes generated text. Every line piece starts a synthetic segment.
func (e *emitter) synthetic(s string) {
	for len(s) > 0 {
		e.b.AddSynthetic(e.line, e.col)
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			e.sb.WriteString(s)
			e.advance(s)
			return
		}
		e.sb.WriteString(s[:i+1])
		e.advance(s[:i+1])
		s = s[i+1:]
	}
}

// copy writes src[start:end] verbatim with one mapping per byte.
func (e *emitter) copy(start, end int) {
	e.copyNamed(start, end, "")
}

// copyNamed is copy with name attached to the first mapping.
func (e *emitter) copyNamed(start, end int, name string) {
	pos, err := e.conv.IndexToPosition(start)
	if err != nil {
		panic(fmt.Errorf("copy outside document: %w", err))
	}
	ol, oc := pos.Line, pos.Col
	for i := start; i < end; i++ {
		if i == start && name != "" {
			e.b.AddNamedMapping(e.line, e.col, e.source, ol, oc, name)
		} else {
			e.b.AddMapping(e.line, e.col, e.source, ol, oc)
		}
		c := e.src[i]
		e.sb.WriteByte(c)
		if c == '\n' {
			e.line++
			e.col = 0
			ol++
			oc = 0
		} else {
			e.col++
			oc++
		}
	}
}

// bind copies a loop binding, naming it in the map.
func (e *emitter) bind(ident [2]int) {
	e.copyNamed(ident[0], ident[1], e.src[ident[0]:ident[1]])
}

// copyAsSynthetic repeats original text without mapping it back.
func (e *emitter) copyAsSynthetic(start, end int) {
	e.synthetic(e.src[start:end])
}

func (e *emitter) ensureNewline() {
	if e.col != 0 {
		e.synthetic("\n")
	}
}

func (e *emitter) String() string {
	return e.sb.String()
}
