package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"glint/internal/annot"
)

// LocationJSON is a node position in the original document.
type LocationJSON struct {
	StartByte int `json:"start_byte" yaml:"start_byte" msgpack:"start_byte"`
	EndByte   int `json:"end_byte" yaml:"end_byte" msgpack:"end_byte"`
	Line      int `json:"line" yaml:"line" msgpack:"line"`
	Character int `json:"character" yaml:"character" msgpack:"character"`
}

// CompletionJSON is one completion candidate.
type CompletionJSON struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Kind   string `json:"kind" yaml:"kind" msgpack:"kind"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty" msgpack:"detail,omitempty"`
}

// NodeJSON is one annotation node.
type NodeJSON struct {
	Kind        string           `json:"kind" yaml:"kind" msgpack:"kind"`
	Location    LocationJSON     `json:"location" yaml:"location" msgpack:"location"`
	Target      string           `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target,omitempty"`
	Text        string           `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
	Docs        string           `json:"docs,omitempty" yaml:"docs,omitempty" msgpack:"docs,omitempty"`
	Severity    string           `json:"severity,omitempty" yaml:"severity,omitempty" msgpack:"severity,omitempty"`
	Code        string           `json:"code,omitempty" yaml:"code,omitempty" msgpack:"code,omitempty"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Prefix      string           `json:"prefix,omitempty" yaml:"prefix,omitempty" msgpack:"prefix,omitempty"`
	Completions []CompletionJSON `json:"completions,omitempty" yaml:"completions,omitempty" msgpack:"completions,omitempty"`
}

// DocumentJSON is one checked file.
type DocumentJSON struct {
	Path    string             `json:"path" yaml:"path" msgpack:"path"`
	Variant string             `json:"variant" yaml:"variant" msgpack:"variant"`
	Error   string             `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
	Nodes   []NodeJSON         `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Timings map[string]float64 `json:"timings_ms,omitempty" yaml:"timings_ms,omitempty" msgpack:"timings_ms,omitempty"`
}

// Output is the root of every structured encoding.
type Output struct {
	Documents []DocumentJSON `json:"documents" yaml:"documents" msgpack:"documents"`
	Summary   Summary        `json:"summary" yaml:"summary" msgpack:"summary"`
}

func makeNode(n *annot.Node) NodeJSON {
	out := NodeJSON{
		Kind: n.Kind.String(),
		Location: LocationJSON{
			StartByte: n.Start,
			EndByte:   n.End(),
			Line:      n.Line,
			Character: n.Character,
		},
		Target: n.Target,
		Text:   n.Text,
		Docs:   n.Docs,
		Code:   n.Code,
		Name:   n.Name,
		Prefix: n.CompletionsPrefix,
	}
	if n.Kind == annot.KindError {
		out.Severity = n.Severity.String()
	}
	for _, c := range n.Completions {
		out.Completions = append(out.Completions, CompletionJSON(c))
	}
	return out
}

// BuildOutput converts documents into the structured output tree.
func BuildOutput(docs []Document, opts Opts) Output {
	out := Output{
		Documents: make([]DocumentJSON, 0, len(docs)),
		Summary:   Summarize(docs),
	}
	for i := range docs {
		d := &docs[i]
		dj := DocumentJSON{
			Path:    d.path(opts),
			Variant: d.Variant,
			Nodes:   []NodeJSON{},
		}
		if d.Err != nil {
			dj.Error = d.Err.Error()
		}
		nodes := d.nodes(opts)
		for j := range nodes {
			dj.Nodes = append(dj.Nodes, makeNode(&nodes[j]))
		}
		if opts.Timings && d.Result != nil && len(d.Result.Meta.Timings) > 0 {
			dj.Timings = make(map[string]float64, len(d.Result.Meta.Timings))
			for stage, dur := range d.Result.Meta.Timings {
				dj.Timings[stage] = toMillis(dur)
			}
		}
		out.Documents = append(out.Documents, dj)
	}
	// документы упорядочены по пути независимо от порядка завершения
	sort.SliceStable(out.Documents, func(i, j int) bool {
		return out.Documents[i].Path < out.Documents[j].Path
	})
	return out
}

// JSON writes documents as indented JSON.
func JSON(w io.Writer, docs []Document, opts Opts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildOutput(docs, opts))
}

// YAML writes documents as a YAML stream of one document.
func YAML(w io.Writer, docs []Document, opts Opts) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(BuildOutput(docs, opts)); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return enc.Close()
}

// Msgpack writes documents as one msgpack value.
func Msgpack(w io.Writer, docs []Document, opts Opts) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(BuildOutput(docs, opts))
}
