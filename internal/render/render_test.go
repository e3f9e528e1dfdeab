package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"glint/internal/annot"
	"glint/internal/source"
)

const page = "<script>\n\tvar world = \"hello\"\n</script>\n<p>{missing}</p>\n"

func sampleDocs(t *testing.T) []Document {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("views/page.gohtml", []byte(page)))
	broken := fs.Get(fs.AddVirtual("views/broken.gohtml", []byte("{#if x}")))

	world := strings.Index(page, "world")
	missing := strings.Index(page, "missing")
	res := &annot.Result{
		Code: page,
		Nodes: []annot.Node{
			{Kind: annot.KindHover, Start: world, Line: 1, Character: 5, Length: 5, Target: "world", Text: "var world string", Docs: "world is greeted."},
			{Kind: annot.KindError, Start: missing, Line: 3, Character: 4, Length: 7, Severity: annot.SevError, Code: "type", Text: "undefined: missing"},
			{Kind: annot.KindCompletion, Start: world, Line: 1, Character: 5, CompletionsPrefix: "wo", Completions: []annot.Completion{{Name: "world", Kind: "var"}}},
		},
		Meta: annot.Meta{Variant: "gohtml", Timings: map[string]time.Duration{"transpile": time.Millisecond, "extract": 2 * time.Millisecond}},
	}
	return []Document{
		{File: file, Variant: "gohtml", Result: res},
		{File: broken, Variant: "gohtml", Err: errors.New("transpile (gohtml): unclosed {#if}")},
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatPretty, FormatJSON, FormatYAML, FormatMsgpack, FormatShort} {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Error("expected error for sarif")
	}
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatPretty, sampleDocs(t), Opts{Context: true, Timings: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"views/page.gohtml:2:6: hover world: var world string\n",
		"    world is greeted.\n",
		"   2 | \tvar world = \"hello\"\n     | \t    ^~~~~\n",
		"views/page.gohtml:4:5: ERROR type: undefined: missing\n",
		"     |     ^~~~~~~\n",
		"completion \"wo\": world\n",
		"timings: transpile 1.00 ms, extract 2.00 ms\n",
		"views/broken.gohtml: failed: transpile (gohtml): unclosed {#if}\n",
		"checked 2 documents: 1 error, 0 warnings, 1 failed\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colors must be off")
	}
}

func TestPrettyUnderlineStopsAtLineEnd(t *testing.T) {
	const code = "{#if ok}\n<p>x</p>\n{/if}\n"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("views/block.gohtml", []byte(code)))
	res := &annot.Result{Code: code, Nodes: []annot.Node{
		{Kind: annot.KindError, Start: 0, Line: 0, Character: 0, Length: len(code) - 1, Severity: annot.SevError, Text: "block"},
		{Kind: annot.KindError, Start: 200, Line: 1, Character: 3, Length: 4, Severity: annot.SevError, Text: "stale start"},
	}}

	var buf bytes.Buffer
	if err := Pretty(&buf, []Document{{File: file, Result: res}}, Opts{Context: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"   1 | {#if ok}\n     | ^~~~~~~\n",
		"   2 | <p>x</p>\n     |    ^\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatShort, sampleDocs(t), Opts{Max: 2}); err != nil {
		t.Fatal(err)
	}
	want := "views/page.gohtml:2:6: hover: var world string\n" +
		"views/page.gohtml:4:5: error: undefined: missing\n" +
		"views/broken.gohtml: failed: transpile (gohtml): unclosed {#if}\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestStructuredFormatsAgree(t *testing.T) {
	docs := sampleDocs(t)
	opts := Opts{Timings: true}
	want := BuildOutput(docs, opts)

	if want.Documents[0].Path != "views/broken.gohtml" {
		t.Fatalf("documents not sorted: %q", want.Documents[0].Path)
	}
	if want.Summary.Errors != 1 || want.Summary.Failed != 1 || !want.Summary.HasFailures() {
		t.Fatalf("summary = %+v", want.Summary)
	}
	doc := want.Documents[1]
	if doc.Nodes[1].Severity != "ERROR" || doc.Nodes[0].Severity != "" {
		t.Errorf("severity only on errors: %+v", doc.Nodes)
	}
	if doc.Nodes[1].Location.EndByte != strings.Index(page, "missing")+7 {
		t.Errorf("end byte = %d", doc.Nodes[1].Location.EndByte)
	}
	if doc.Timings["extract"] != 2 {
		t.Errorf("timings = %v", doc.Timings)
	}

	var buf bytes.Buffer
	if err := JSON(&buf, docs, opts); err != nil {
		t.Fatal(err)
	}
	var fromJSON Output
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	if err := YAML(&buf, docs, opts); err != nil {
		t.Fatal(err)
	}
	var fromYAML Output
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	if err := Msgpack(&buf, docs, opts); err != nil {
		t.Fatal(err)
	}
	var fromMsgpack Output
	if err := msgpack.Unmarshal(buf.Bytes(), &fromMsgpack); err != nil {
		t.Fatal(err)
	}

	for name, got := range map[string]Output{"json": fromJSON, "yaml": fromYAML, "msgpack": fromMsgpack} {
		if len(got.Documents) != 2 || got.Summary != want.Summary {
			t.Errorf("%s: %+v", name, got)
			continue
		}
		if got.Documents[1].Nodes[2].Completions[0].Name != "world" {
			t.Errorf("%s: completions lost", name)
		}
		if got.Documents[0].Error == "" {
			t.Errorf("%s: error lost", name)
		}
	}
}
