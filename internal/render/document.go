// Package render prints checked documents as colored text or as JSON, YAML
// or msgpack for tools.
package render

import (
	"glint/internal/annot"
	"glint/internal/source"
)

// Document is one checked file. Either Result or Err is set.
type Document struct {
	File *source.File
	// Path names the document when File is nil, e.g. after a load failure.
	Path    string
	Variant string
	Result  *annot.Result
	Err     error
}

func (d *Document) path(opts Opts) string {
	if d.File == nil {
		if d.Path != "" {
			return d.Path
		}
		return "<unknown>"
	}
	return d.File.FormatPath(opts.PathMode.mode(), opts.BaseDir)
}

func (d *Document) nodes(opts Opts) []annot.Node {
	if d.Result == nil {
		return nil
	}
	nodes := d.Result.Nodes
	if opts.Max > 0 && len(nodes) > opts.Max {
		nodes = nodes[:opts.Max]
	}
	return nodes
}

// Summary counts what a set of documents produced.
type Summary struct {
	Documents int `json:"documents" yaml:"documents" msgpack:"documents"`
	Failed    int `json:"failed" yaml:"failed" msgpack:"failed"`
	Nodes     int `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Errors    int `json:"errors" yaml:"errors" msgpack:"errors"`
	Warnings  int `json:"warnings" yaml:"warnings" msgpack:"warnings"`
}

// Summarize counts nodes by severity across docs.
func Summarize(docs []Document) Summary {
	s := Summary{Documents: len(docs)}
	for i := range docs {
		d := &docs[i]
		if d.Err != nil {
			s.Failed++
			continue
		}
		if d.Result == nil {
			continue
		}
		s.Nodes += len(d.Result.Nodes)
		for _, n := range d.Result.Errors() {
			switch n.Severity {
			case annot.SevError:
				s.Errors++
			case annot.SevWarning:
				s.Warnings++
			}
		}
	}
	return s
}

// HasFailures reports whether the run should exit non-zero.
func (s Summary) HasFailures() bool { return s.Failed > 0 || s.Errors > 0 }
