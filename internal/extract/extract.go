// Package extract computes annotation nodes for a Go file: hovers for every
// resolved identifier, syntax and type errors, and the comment markers
// (^? queries, ^| completions, ^^^ highlights, @name tags).
package extract

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"glint/internal/annot"
)

// VariantGo is the only document kind the extractor understands.
const VariantGo = "go"

// DefaultFileName is used when Options.FileName is empty.
const DefaultFileName = "main.go"

// Error codes of error nodes.
const (
	CodeSyntax = "syntax"
	CodeType   = "type"
	CodeQuery  = "query"
)

var (
	ErrUnsupportedVariant = errors.New("unsupported variant")
	ErrUnknownShim        = errors.New("unknown type shim")
	ErrCompilerOption     = errors.New("invalid compiler option")
)

// Options control one extraction.
type Options struct {
	CompilerOptions map[string]any
	// NoErrors drops error nodes from the result.
	NoErrors bool
	FileName string
}

// Extractor type-checks Go files. It is safe for concurrent use.
type Extractor struct {
	mu    sync.RWMutex
	shims map[string]string
}

// New returns an extractor with the markup shims registered.
func New() *Extractor {
	e := &Extractor{shims: make(map[string]string)}
	e.RegisterShim(MarkupShims, markupShim)
	return e
}

// checked is one type-checked file plus everything derived from it
type checked struct {
	code  string
	fset  *token.FileSet
	file  *ast.File
	tf    *token.File
	pkg   *types.Package
	info  *types.Info
	shims map[*token.File]bool
	docs  map[token.Pos]string
	cfg   compilerConfig
	nodes []annot.Node
}

// Extract returns the annotation nodes of code. Positions are relative to
// code itself.
func (e *Extractor) Extract(ctx context.Context, code, variant string, opts Options) (*annot.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if variant != VariantGo {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVariant, variant)
	}
	cfg, err := parseCompilerOptions(opts.CompilerOptions)
	if err != nil {
		return nil, err
	}
	name := opts.FileName
	if name == "" {
		name = DefaultFileName
	}

	c := &checked{
		code:  code,
		fset:  token.NewFileSet(),
		shims: make(map[*token.File]bool),
		docs:  make(map[token.Pos]string),
		cfg:   cfg,
	}
	file, perr := parser.ParseFile(c.fset, name, code, parser.ParseComments|parser.AllErrors)
	syntaxErrors := c.addSyntaxErrors(perr)
	if file == nil || file.Name == nil {
		return c.result(variant, opts), nil
	}
	c.file = file
	c.tf = c.fset.File(file.Pos())

	files := []*ast.File{file}
	for _, shimName := range cfg.types {
		src, ok := e.shim(shimName)
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownShim, shimName, strings.Join(e.Shims(), ", "))
		}
		sf, err := parser.ParseFile(c.fset, shimName+".go", "package "+file.Name.Name+"\n"+src, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("shim %q: %w", shimName, err)
		}
		c.shims[c.fset.File(sf.Pos())] = true
		files = append(files, sf)
	}
	for _, f := range files {
		collectDocs(f, c.docs)
	}

	var typeErrs []types.Error
	conf := types.Config{
		GoVersion:   cfg.goVersion,
		Importer:    importer.ForCompiler(c.fset, "source", nil),
		FakeImportC: true,
		Error: func(err error) {
			var terr types.Error
			if errors.As(err, &terr) {
				typeErrs = append(typeErrs, terr)
			}
		},
	}
	c.info = &types.Info{
		Defs:   make(map[*ast.Ident]types.Object),
		Uses:   make(map[*ast.Ident]types.Object),
		Scopes: make(map[ast.Node]*types.Scope),
	}
	// ошибки уже в typeErrs, результат Check не нужен
	c.pkg, _ = conf.Check(file.Name.Name, c.fset, files, c.info)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !syntaxErrors {
		c.addTypeErrors(typeErrs)
	}
	c.addHovers()
	c.addMarkers()
	return c.result(variant, opts), nil
}

func (c *checked) result(variant string, opts Options) *annot.Result {
	nodes := c.nodes
	if opts.NoErrors {
		nodes = nodes[:0]
		for _, n := range c.nodes {
			if n.Kind != annot.KindError {
				nodes = append(nodes, n)
			}
		}
	}
	annot.Sort(nodes)
	return &annot.Result{
		Code:  c.code,
		Nodes: nodes,
		Meta: annot.Meta{
			Variant:         variant,
			CompilerOptions: annot.CloneOptions(opts.CompilerOptions),
		},
	}
}

// node fills the position fields of a node from a main file position.
func (c *checked) node(kind annot.Kind, pos token.Position, length int) annot.Node {
	return annot.Node{
		Kind:      kind,
		Start:     pos.Offset,
		Line:      pos.Line - 1,
		Character: pos.Column - 1,
		Length:    length,
	}
}

func (c *checked) addSyntaxErrors(err error) bool {
	if err == nil {
		return false
	}
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		n := annot.Node{Kind: annot.KindError, Length: 1, Severity: annot.SevError, Code: CodeSyntax, Text: err.Error()}
		c.nodes = append(c.nodes, n)
		return true
	}
	for _, e := range list {
		n := c.node(annot.KindError, e.Pos, identLen(c.code, e.Pos.Offset))
		n.Severity = annot.SevError
		n.Code = CodeSyntax
		n.Text = e.Msg
		c.nodes = append(c.nodes, n)
	}
	return len(list) > 0
}

func (c *checked) addTypeErrors(errs []types.Error) {
	for _, terr := range errs {
		if c.fset.File(terr.Pos) != c.tf {
			continue
		}
		pos := c.fset.Position(terr.Pos)
		n := c.node(annot.KindError, pos, identLen(c.code, pos.Offset))
		n.Severity = annot.SevError
		if terr.Soft && !c.cfg.strict {
			n.Severity = annot.SevWarning
		}
		n.Code = CodeType
		n.Text = terr.Msg
		c.nodes = append(c.nodes, n)
	}
}

// identLen returns the length of the identifier starting at off, or 1.
func identLen(code string, off int) int {
	i := off
	for i < len(code) {
		r, size := utf8.DecodeRuneInString(code[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	if i == off {
		return 1
	}
	return i - off
}
