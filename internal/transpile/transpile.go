// Package transpile turns a gohtml document into a plain Go file plus a
// source map back into the document.
//
// A document is HTML-like markup with Go declarations in <script> blocks and
// Go expressions in braces:
//
//	<script>
//	  var items []string
//	</script>
//	{#each items as item, i}<li>{i}: {item}</li>{/each}
//
// Script content is copied byte for byte. Every markup region holding
// interpolations becomes a render function whose statements evaluate the
// interpolated expressions through the __markup sink:
//
//	func __render0() {
//		for __k, __v := range items {
//			item, i := __v, __k
//			_, _ = item, i
//			__markup.Emit(i)
//			__markup.Emit(item)
//		}
//	}
//
// Regions keep their document order, so the map never inverts it. Imports
// therefore belong to the first <script>, before any interpolation.
package transpile

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"strings"

	"glint/internal/source"
	"glint/internal/srcmap"
)

// Identifiers injected into the derived file.
const (
	MarkupIdent  = "__markup"
	RenderPrefix = "__render"
	LoopValue    = "__v"
	LoopKey      = "__k"
)

const (
	DefaultPackage  = "page"
	DefaultFileName = "page.gohtml"
)

// Options configure the derived file.
type Options struct {
	// Package is the package clause of the derived file.
	Package string
	// FileName names the original document inside the source map.
	FileName string
	// StringVersion writes the map version as "3" instead of 3.
	StringVersion bool
}

// Output is a derived Go file and its map back into the document.
type Output struct {
	Code    string
	Map     srcmap.Payload
	Renders int
}

// Transpiler converts gohtml documents. It holds no per-document state and
// is safe for concurrent use.
type Transpiler struct {
	opts Options
}

func New(opts Options) *Transpiler {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	return &Transpiler{opts: opts}
}

// Transpile converts code. Rejections are *Error values wrapping ErrTranspile.
func (t *Transpiler) Transpile(ctx context.Context, code string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := srcmap.NewBuilder(t.opts.Package + ".go")
	b.StringVersion(t.opts.StringVersion)
	src := b.AddSource(t.opts.FileName, code)

	conv := source.NewConverter(code)
	s := &state{
		cur:  cursor{src: code},
		conv: conv,
		file: t.opts.FileName,
		em:   newEmitter(code, conv, b, src),
	}
	s.em.synthetic("package " + t.opts.Package + "\n")
	if err := s.run(); err != nil {
		return nil, err
	}

	payload, err := b.Payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranspile, err)
	}
	return &Output{Code: s.em.String(), Map: payload, Renders: s.renders}, nil
}

type blockKind uint8

const (
	blockIf blockKind = iota
	blockEach
)

func (k blockKind) String() string {
	if k == blockEach {
		return "{#each}"
	}
	return "{#if}"
}

type block struct {
	kind    blockKind
	at      int
	sawElse bool
}

type state struct {
	cur  cursor
	conv *source.Converter
	em   *emitter
	file string

	stack    []block
	inRender bool
	renders  int
}

func (s *state) errorf(at int, format string, args ...any) error {
	pos, err := s.conv.IndexToPosition(at)
	if err != nil {
		pos = source.LineCol{}
	}
	return &Error{File: s.file, Line: pos.Line, Column: pos.Col, Msg: fmt.Sprintf(format, args...)}
}

func (s *state) run() error {
	for !s.cur.eof() {
		var err error
		switch {
		case s.cur.hasPrefix("<!--"):
			err = s.skipComment()
		case s.cur.hasTag("style"):
			_, _, err = s.element("style")
		case s.cur.hasTag("script"):
			err = s.script()
		case s.cur.peek() == '{':
			err = s.interpolation()
		default:
			s.cur.bump()
		}
		if err != nil {
			return err
		}
	}
	if n := len(s.stack); n > 0 {
		return s.errorf(s.stack[n-1].at, "unclosed %s", s.stack[n-1].kind)
	}
	s.closeRender()
	return nil
}

func (s *state) skipComment() error {
	start := s.cur.off
	end := s.cur.index(start+4, "-->")
	if end < 0 {
		return s.errorf(start, "unterminated comment")
	}
	s.cur.off = end + 3
	return nil
}

// element consumes <name ...>...</name> and returns the content bounds.
// A self-closing tag yields an empty content range.
func (s *state) element(name string) (contentStart, contentEnd int, err error) {
	start := s.cur.off
	gt := openTagEnd(s.cur.src, start)
	if gt < 0 {
		return 0, 0, s.errorf(start, "unterminated <%s> tag", name)
	}
	if s.cur.src[gt-1] == '/' {
		s.cur.off = gt + 1
		return gt + 1, gt + 1, nil
	}
	closeAt := s.cur.index(gt+1, "</"+name)
	if closeAt < 0 {
		return 0, 0, s.errorf(start, "unterminated <%s>", name)
	}
	closeGt := s.cur.index(closeAt, ">")
	if closeGt < 0 {
		return 0, 0, s.errorf(closeAt, "unterminated </%s>", name)
	}
	s.cur.off = closeGt + 1
	return gt + 1, closeAt, nil
}

func (s *state) script() error {
	start := s.cur.off
	if n := len(s.stack); n > 0 {
		return s.errorf(start, "<script> inside %s", s.stack[n-1].kind)
	}
	from, to, err := s.element("script")
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	s.closeRender()
	s.em.copy(from, to)
	s.em.ensureNewline()
	return nil
}

func (s *state) openRender() {
	if s.inRender {
		return
	}
	s.em.synthetic(fmt.Sprintf("\nfunc %s%d() {\n", RenderPrefix, s.renders))
	s.renders++
	s.inRender = true
}

func (s *state) closeRender() {
	if !s.inRender {
		return
	}
	s.em.synthetic("}\n")
	s.inRender = false
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}

func (s *state) interpolation() error {
	open := s.cur.off
	end, ok := matchBrace(s.cur.src, open)
	if !ok {
		return s.errorf(open, "unterminated '{'")
	}
	s.cur.off = end + 1

	a, b := trim(s.cur.src, open+1, end)
	if a == b {
		return s.errorf(open, "empty expression")
	}
	src := s.cur.src
	switch src[a] {
	case '#', ':', '/', '@':
	default:
		return s.emitExpr(open, a, b)
	}

	// ключевое слово сразу после сигила
	kwEnd := a + 1
	for kwEnd < b && isLetter(src[kwEnd]) {
		kwEnd++
	}
	sigil, kw := src[a], src[a+1:kwEnd]
	ra, rb := trim(src, kwEnd, b)
	if kwEnd < b && !isSpace(src[kwEnd]) {
		return s.errorf(open, "unknown block {%s}", src[a:b])
	}

	switch {
	case sigil == '#' && kw == "if":
		if ra == rb {
			return s.errorf(open, "{#if} needs a condition")
		}
		return s.openIf(open, ra, rb)
	case sigil == '#' && kw == "each":
		return s.openEach(open, ra, rb)
	case sigil == ':' && kw == "else":
		return s.elseBranch(open, ra, rb)
	case sigil == '/' && (kw == "if" || kw == "each") && ra == rb:
		return s.closeBlock(open, kw)
	case sigil == '@' && kw == "html":
		if ra == rb {
			return s.errorf(open, "empty expression")
		}
		return s.emitExpr(open, ra, rb)
	default:
		return s.errorf(open, "unknown block {%s}", src[a:b])
	}
	return nil
}

// checkExpr rejects text the Go parser cannot read as an expression. The
// parser would otherwise report it at a synthetic position and the error
// would never reach the document.
func (s *state) checkExpr(open, a, b int) error {
	if _, err := parser.ParseExpr(s.cur.src[a:b]); err != nil {
		return s.errorf(open, "malformed expression %q", s.cur.src[a:b])
	}
	return nil
}

func (s *state) emitExpr(open, a, b int) error {
	if err := s.checkExpr(open, a, b); err != nil {
		return err
	}
	s.openRender()
	s.em.synthetic(indent(len(s.stack)+1) + MarkupIdent + ".Emit(")
	s.em.copy(a, b)
	s.em.synthetic(")\n")
	return nil
}

func (s *state) openIf(open, a, b int) error {
	if err := s.checkExpr(open, a, b); err != nil {
		return err
	}
	s.openRender()
	s.em.synthetic(indent(len(s.stack)+1) + "if ")
	s.em.copy(a, b)
	s.em.synthetic(" {\n")
	s.stack = append(s.stack, block{kind: blockIf, at: open})
	return nil
}

func (s *state) elseBranch(open, a, b int) error {
	n := len(s.stack)
	if n == 0 || s.stack[n-1].kind != blockIf {
		return s.errorf(open, "{:else} outside {#if}")
	}
	top := &s.stack[n-1]
	if top.sawElse {
		return s.errorf(open, "{:else} after {:else}")
	}
	src := s.cur.src
	if a == b {
		top.sawElse = true
		s.em.synthetic(indent(n) + "} else {\n")
		return nil
	}
	if !strings.HasPrefix(src[a:b], "if") || (a+2 < b && !isSpace(src[a+2])) {
		return s.errorf(open, "unknown block {:else %s}", src[a:b])
	}
	ca, cb := trim(src, a+2, b)
	if ca == cb {
		return s.errorf(open, "{:else if} needs a condition")
	}
	if err := s.checkExpr(open, ca, cb); err != nil {
		return err
	}
	s.em.synthetic(indent(n) + "} else if ")
	s.em.copy(ca, cb)
	s.em.synthetic(" {\n")
	return nil
}

func (s *state) closeBlock(open int, kw string) error {
	want := blockIf
	if kw == "each" {
		want = blockEach
	}
	n := len(s.stack)
	if n == 0 {
		return s.errorf(open, "unexpected {/%s}", kw)
	}
	if top := s.stack[n-1]; top.kind != want {
		pos, _ := s.conv.IndexToPosition(top.at)
		return s.errorf(open, "{/%s} closes %s opened at %d:%d", kw, top.kind, pos.Line+1, pos.Col+1)
	}
	s.stack = s.stack[:n-1]
	s.em.synthetic(indent(n) + "}\n")
	return nil
}

// openEach handles `list as item` and `list as item, index`.
func (s *state) openEach(open, a, b int) error {
	src := s.cur.src
	k := strings.LastIndex(src[a:b], " as ")
	if k < 0 {
		return s.errorf(open, "malformed {#each}: expected {#each list as item}")
	}
	la, lb := trim(src, a, a+k)
	if la == lb {
		return s.errorf(open, "malformed {#each}: missing list expression")
	}
	if err := s.checkExpr(open, la, lb); err != nil {
		return err
	}

	bindStart := a + k + len(" as ")
	binding := src[bindStart:b]
	var bounds [][2]int
	from := bindStart
	for _, part := range strings.Split(binding, ",") {
		pa, pb := trim(src, from, from+len(part))
		if !token.IsIdentifier(src[pa:pb]) {
			return s.errorf(open, "malformed {#each}: %q is not an identifier", src[pa:pb])
		}
		bounds = append(bounds, [2]int{pa, pb})
		from += len(part) + 1
	}
	if len(bounds) > 2 {
		return s.errorf(open, "malformed {#each}: at most item and index may be bound")
	}

	s.openRender()
	d := len(s.stack) + 1
	item := bounds[0]
	if len(bounds) == 1 {
		s.em.synthetic(indent(d) + "for _, " + LoopValue + " := range ")
		s.em.copy(la, lb)
		s.em.synthetic(" {\n" + indent(d+1))
		s.em.bind(item)
		s.em.synthetic(" := " + LoopValue + "\n" + indent(d+1) + "_ = ")
		s.em.copyAsSynthetic(item[0], item[1])
		s.em.synthetic("\n")
	} else {
		index := bounds[1]
		s.em.synthetic(indent(d) + "for " + LoopKey + ", " + LoopValue + " := range ")
		s.em.copy(la, lb)
		s.em.synthetic(" {\n" + indent(d+1))
		s.em.bind(item)
		s.em.synthetic(", ")
		s.em.bind(index)
		s.em.synthetic(" := " + LoopValue + ", " + LoopKey + "\n" + indent(d+1) + "_, _ = ")
		s.em.copyAsSynthetic(item[0], item[1])
		s.em.synthetic(", ")
		s.em.copyAsSynthetic(index[0], index[1])
		s.em.synthetic("\n")
	}
	s.stack = append(s.stack, block{kind: blockEach, at: open})
	return nil
}
