package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"glint/internal/annot"
	"glint/internal/source"
)

type palette struct {
	path    *color.Color
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	kind    *color.Color
	target  *color.Color
	caret   *color.Color
	gutter  *color.Color
	dimmed  *color.Color
	success *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:    color.New(color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		kind:    color.New(color.FgCyan),
		target:  color.New(color.Bold),
		caret:   color.New(color.FgGreen, color.Bold),
		gutter:  color.New(color.FgBlue),
		dimmed:  color.New(color.Faint),
		success: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.info, p.kind, p.target, p.caret, p.gutter, p.dimmed, p.success} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s annot.Severity) *color.Color {
	switch s {
	case annot.SevError:
		return p.err
	case annot.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty пишет узлы в человекочитаемом виде:
//
//	<path>:<line>:<col>: <kind> <target>: <text>
//
// затем строку исходника с подчёркиванием ^~~~ по длине узла.
// Строки и колонки печатаются с единицы.
func Pretty(w io.Writer, docs []Document, opts Opts) error {
	p := newPalette(opts.Color)
	for i := range docs {
		if err := prettyDocument(w, &docs[i], opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyDocument(w io.Writer, d *Document, opts Opts, p palette) error {
	path := d.path(opts)
	if d.Err != nil {
		_, err := fmt.Fprintf(w, "%s: %s %v\n", p.path.Sprint(path), p.err.Sprint("failed:"), d.Err)
		return err
	}
	nodes := d.nodes(opts)
	for i := range nodes {
		n := &nodes[i]
		if _, err := fmt.Fprintf(w, "%s: %s\n", p.path.Sprintf("%s:%d:%d", path, n.Line+1, n.Character+1), headline(n, p)); err != nil {
			return err
		}
		if n.Docs != "" {
			for _, line := range strings.Split(n.Docs, "\n") {
				if _, err := fmt.Fprintf(w, "    %s\n", p.dimmed.Sprint(line)); err != nil {
					return err
				}
			}
		}
		if opts.Context && d.File != nil {
			if err := writeContext(w, d, n, p); err != nil {
				return err
			}
		}
	}
	if opts.Timings && d.Result != nil && len(d.Result.Meta.Timings) > 0 {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.dimmed.Sprint("timings:"), formatTimings(d.Result.Meta.Timings)); err != nil {
			return err
		}
	}
	return nil
}

func headline(n *annot.Node, p palette) string {
	switch n.Kind {
	case annot.KindError:
		code := ""
		if n.Code != "" {
			code = " " + n.Code
		}
		return fmt.Sprintf("%s%s: %s", p.severity(n.Severity).Sprint(n.Severity.String()), code, n.Text)
	case annot.KindHover, annot.KindQuery:
		return fmt.Sprintf("%s %s: %s", p.kind.Sprint(n.Kind), p.target.Sprint(n.Target), n.Text)
	case annot.KindCompletion:
		names := make([]string, 0, len(n.Completions))
		for _, c := range n.Completions {
			names = append(names, c.Name)
		}
		return fmt.Sprintf("%s %q: %s", p.kind.Sprint(n.Kind), n.CompletionsPrefix, strings.Join(names, ", "))
	case annot.KindTag:
		return fmt.Sprintf("%s @%s: %s", p.kind.Sprint(n.Kind), n.Name, n.Text)
	default:
		if n.Text == "" {
			return p.kind.Sprint(n.Kind)
		}
		return fmt.Sprintf("%s: %s", p.kind.Sprint(n.Kind), n.Text)
	}
}

// writeContext prints the node's line and an underline below it. Tabs are
// kept so the underline stays aligned in any terminal.
func writeContext(w io.Writer, d *Document, n *annot.Node, p palette) error {
	line := strings.TrimSuffix(d.File.GetLine(n.Line), "\r")
	col, end := underlineRange(d, n, line)

	gutter := fmt.Sprintf("%4d | ", n.Line+1)
	blank := strings.Repeat(" ", runewidth.StringWidth(gutter)-2) + "| "

	var pad strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[col:end]), 1)
	underline := "^" + strings.Repeat("~", width-1)

	_, err := fmt.Fprintf(w, "%s%s\n%s%s%s\n", p.gutter.Sprint(gutter), line, p.gutter.Sprint(blank), pad.String(), p.caret.Sprint(underline))
	return err
}

// underlineRange returns the byte columns of line covered by n. A node
// running past its line is underlined to the end of that line; an empty or
// unresolvable node gets a single caret.
func underlineRange(d *Document, n *annot.Node, line string) (int, int) {
	col := min(n.Character, len(line))
	caret := min(col+1, len(line))
	span := source.SpanOf(n.Start, n.Length)
	if span.Empty() {
		return col, caret
	}
	start, end, err := d.File.Converter().SpanPositions(span)
	if err != nil || start.Line != n.Line {
		return col, caret
	}
	if end.Line > start.Line {
		return col, len(line)
	}
	return col, max(min(end.Col, len(line)), col)
}

func formatTimings(t map[string]time.Duration) string {
	var parts []string
	for _, stage := range []string{"transpile", "extract", "normalize", "assemble"} {
		if d, ok := t[stage]; ok {
			parts = append(parts, fmt.Sprintf("%s %.2f ms", stage, toMillis(d)))
		}
	}
	return strings.Join(parts, ", ")
}

// PrettySummary prints the closing line of a pretty run.
func PrettySummary(w io.Writer, s Summary, opts Opts) error {
	p := newPalette(opts.Color)
	msg := fmt.Sprintf("checked %d %s: %d %s, %d %s",
		s.Documents, plural(s.Documents, "document"),
		s.Errors, plural(s.Errors, "error"),
		s.Warnings, plural(s.Warnings, "warning"))
	if s.Failed > 0 {
		msg += fmt.Sprintf(", %d failed", s.Failed)
	}
	c := p.success
	if s.HasFailures() {
		c = p.err
	}
	_, err := fmt.Fprintln(w, c.Sprint(msg))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
