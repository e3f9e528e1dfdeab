package render

import (
	"fmt"
	"io"
	"strings"

	"glint/internal/annot"
)

// Short prints one line per node: path:line:col: kind: text.
func Short(w io.Writer, docs []Document, opts Opts) error {
	for i := range docs {
		d := &docs[i]
		path := d.path(opts)
		if d.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: failed: %v\n", path, d.Err); err != nil {
				return err
			}
			continue
		}
		nodes := d.nodes(opts)
		for j := range nodes {
			n := &nodes[j]
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s\n", path, n.Line+1, n.Character+1, shortText(n)); err != nil {
				return err
			}
		}
	}
	return nil
}

func shortText(n *annot.Node) string {
	var text string
	switch n.Kind {
	case annot.KindError:
		return strings.ToLower(n.Severity.String()) + ": " + firstLine(n.Text)
	case annot.KindTag:
		text = "@" + n.Name + " " + n.Text
	case annot.KindCompletion:
		text = fmt.Sprintf("%q (%d candidates)", n.CompletionsPrefix, len(n.Completions))
	default:
		text = n.Text
	}
	return n.Kind.String() + ": " + firstLine(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
