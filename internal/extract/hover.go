package extract

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"glint/internal/annot"
)

// collectDocs maps declared name positions to their doc comments.
func collectDocs(f *ast.File, docs map[token.Pos]string) {
	put := func(id *ast.Ident, groups ...*ast.CommentGroup) {
		for _, g := range groups {
			if g != nil {
				docs[id.Pos()] = strings.TrimSpace(g.Text())
				return
			}
		}
	}
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			put(d.Name, d.Doc)
		case *ast.GenDecl:
			// у одиночной спецификации doc висит на декларации
			var outer *ast.CommentGroup
			if len(d.Specs) == 1 {
				outer = d.Doc
			}
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, name := range s.Names {
						put(name, s.Doc, outer)
					}
				case *ast.TypeSpec:
					put(s.Name, s.Doc, outer)
					collectFieldDocs(s.Type, docs)
				}
			}
		}
	}
}

func collectFieldDocs(expr ast.Expr, docs map[token.Pos]string) {
	var fields *ast.FieldList
	switch t := expr.(type) {
	case *ast.StructType:
		fields = t.Fields
	case *ast.InterfaceType:
		fields = t.Methods
	}
	if fields == nil {
		return
	}
	for _, f := range fields.List {
		doc := f.Doc
		if doc == nil {
			doc = f.Comment
		}
		if doc == nil {
			continue
		}
		for _, name := range f.Names {
			docs[name.Pos()] = strings.TrimSpace(doc.Text())
		}
	}
}

// object returns what id defines or refers to.
func (c *checked) object(id *ast.Ident) types.Object {
	if obj := c.info.Defs[id]; obj != nil {
		return obj
	}
	return c.info.Uses[id]
}

func (c *checked) objectText(obj types.Object) string {
	return types.ObjectString(obj, types.RelativeTo(c.pkg))
}

// fromShim reports whether obj was declared by a registered shim.
func (c *checked) fromShim(obj types.Object) bool {
	if !obj.Pos().IsValid() {
		return false
	}
	return c.shims[c.fset.File(obj.Pos())]
}

func (c *checked) identNode(kind annot.Kind, id *ast.Ident, obj types.Object) annot.Node {
	n := c.node(kind, c.fset.Position(id.Pos()), len(id.Name))
	n.Target = id.Name
	n.Text = c.objectText(obj)
	n.Docs = c.docs[obj.Pos()]
	if c.fromShim(obj) {
		n.Tags = []string{annot.InternalTag}
	}
	return n
}

func (c *checked) addHovers() {
	ast.Inspect(c.file, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || id.Name == "_" {
			return true
		}
		obj := c.object(id)
		if obj == nil {
			return true
		}
		c.nodes = append(c.nodes, c.identNode(annot.KindHover, id, obj))
		return true
	})
}

func objectKind(obj types.Object) string {
	switch obj.(type) {
	case *types.Var:
		return "var"
	case *types.Const:
		return "const"
	case *types.TypeName:
		return "type"
	case *types.Func:
		return "func"
	case *types.PkgName:
		return "package"
	case *types.Builtin:
		return "builtin"
	case *types.Nil:
		return "nil"
	case *types.Label:
		return "label"
	}
	return "unknown"
}
