package extract

import (
	"go/ast"
	"go/token"
	"go/types"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"glint/internal/annot"
)

var (
	tagRe       = regexp.MustCompile(`^\s*@([A-Za-z][A-Za-z0-9_-]*)(?::\s*(.*?))?\s*$`)
	highlightRe = regexp.MustCompile(`^(\s*)(\^+)(?:\s+(.*?))?\s*$`)
)

// addMarkers scans line comments for markers. Carets address the line
// directly above the comment.
func (c *checked) addMarkers() {
	for _, group := range c.file.Comments {
		for _, cm := range group.List {
			if !strings.HasPrefix(cm.Text, "//") {
				continue
			}
			body := cm.Text[2:]
			pos := c.fset.Position(cm.Slash)
			bodyCol := pos.Column - 1 + 2

			switch trimmed := strings.TrimSpace(body); {
			case trimmed == "^?":
				c.addQuery(pos, bodyCol+strings.IndexByte(body, '^'))
			case trimmed == "^|":
				c.addCompletion(pos, bodyCol+strings.IndexByte(body, '^'))
			case tagRe.MatchString(body):
				m := tagRe.FindStringSubmatch(body)
				n := c.node(annot.KindTag, pos, len(cm.Text))
				n.Name = m[1]
				n.Text = m[2]
				c.nodes = append(c.nodes, n)
			case highlightRe.MatchString(body):
				m := highlightRe.FindStringSubmatch(body)
				c.addHighlight(pos, bodyCol+len(m[1]), len(m[2]), m[3])
			}
		}
	}
}

// lineAbove returns the position of column col on the line above a comment,
// and whether that column exists (col == line length is allowed when
// allowEnd is set).
func (c *checked) lineAbove(comment token.Position, col int, allowEnd bool) (token.Position, bool) {
	line := comment.Line - 1
	if line < 1 || col < 0 {
		return token.Position{}, false
	}
	start := c.tf.Offset(c.tf.LineStart(line))
	end := c.tf.Offset(c.tf.LineStart(comment.Line)) - 1
	if col > end-start || (!allowEnd && col == end-start) {
		return token.Position{}, false
	}
	return c.tf.Position(c.tf.Pos(start + col)), true
}

func (c *checked) addQuery(comment token.Position, col int) {
	at, ok := c.lineAbove(comment, col, false)
	if ok {
		p := c.tf.Pos(at.Offset)
		path, _ := astutil.PathEnclosingInterval(c.file, p, p+1)
		if len(path) > 0 {
			if id, isIdent := path[0].(*ast.Ident); isIdent {
				if obj := c.object(id); obj != nil {
					c.nodes = append(c.nodes, c.identNode(annot.KindQuery, id, obj))
					return
				}
			}
		}
	}
	n := c.node(annot.KindError, comment, len("//"))
	n.Severity = annot.SevError
	n.Code = CodeQuery
	n.Text = "no identifier under ^?"
	c.nodes = append(c.nodes, n)
}

func (c *checked) addHighlight(comment token.Position, col, length int, text string) {
	at, ok := c.lineAbove(comment, col, false)
	if !ok {
		return
	}
	n := c.node(annot.KindHighlight, at, length)
	n.Text = text
	c.nodes = append(c.nodes, n)
}

func (c *checked) addCompletion(comment token.Position, col int) {
	at, ok := c.lineAbove(comment, col, true)
	if !ok {
		return
	}
	lineStart := at.Offset - (at.Column - 1)
	prefixStart := at.Offset
	for prefixStart > lineStart && isIdentByte(c.code[prefixStart-1]) {
		prefixStart--
	}
	prefix := c.code[prefixStart:at.Offset]

	n := c.node(annot.KindCompletion, at, 0)
	n.CompletionsPrefix = prefix
	n.Completions = c.completions(c.tf.Pos(at.Offset), prefix)
	c.nodes = append(c.nodes, n)
}

// completions lists names visible at pos, innermost scope first wins.
func (c *checked) completions(pos token.Pos, prefix string) []annot.Completion {
	if c.pkg == nil {
		return nil
	}
	scope := c.pkg.Scope().Innermost(pos)
	if scope == nil {
		scope = c.pkg.Scope()
	}
	seen := make(map[string]bool)
	var out []annot.Completion
	for s := scope; s != nil; s = s.Parent() {
		// в локальных скоупах объявление должно предшествовать позиции
		local := s.Parent() != nil && s.Parent() != types.Universe && s.Parent() != c.pkg.Scope()
		for _, name := range s.Names() {
			if seen[name] || strings.HasPrefix(name, "__") || !strings.HasPrefix(name, prefix) {
				continue
			}
			obj := s.Lookup(name)
			if local && obj.Pos() >= pos {
				continue
			}
			seen[name] = true
			out = append(out, annot.Completion{Name: name, Kind: objectKind(obj), Detail: c.objectText(obj)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isIdentByte(b byte) bool {
	return b == '_' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9' || b >= 0x80
}
