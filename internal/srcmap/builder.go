package srcmap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Builder collects mapping segments and encodes them as a v3 payload.
type Builder struct {
	file          string
	sources       []string
	contents      []string
	names         []string
	nameIdx       map[string]int
	entries       []Entry
	stringVersion bool
}

// NewBuilder starts a map for the generated file named file.
func NewBuilder(file string) *Builder {
	return &Builder{file: file, nameIdx: make(map[string]int)}
}

// StringVersion selects the textual encoding of the version field ("3").
func (b *Builder) StringVersion(on bool) {
	b.stringVersion = on
}

// AddSource registers an original document and returns its index.
func (b *Builder) AddSource(name, content string) int {
	b.sources = append(b.sources, name)
	b.contents = append(b.contents, content)
	return len(b.sources) - 1
}

// AddMapping records that derived (genLine, genCol) comes from
// (origLine, origCol) of the given source.
func (b *Builder) AddMapping(genLine, genCol, source, origLine, origCol int) {
	b.entries = append(b.entries, Entry{
		GenLine: genLine, GenCol: genCol,
		Source: source, OrigLine: origLine, OrigCol: origCol,
		Name: -1,
	})
}

// AddNamedMapping is AddMapping with an original identifier name attached.
func (b *Builder) AddNamedMapping(genLine, genCol, source, origLine, origCol int, name string) {
	idx, ok := b.nameIdx[name]
	if !ok {
		idx = len(b.names)
		b.names = append(b.names, name)
		b.nameIdx[name] = idx
	}
	b.entries = append(b.entries, Entry{
		GenLine: genLine, GenCol: genCol,
		Source: source, OrigLine: origLine, OrigCol: origCol,
		Name: idx,
	})
}

// AddSynthetic marks derived text starting at (genLine, genCol) as having
// no original counterpart.
func (b *Builder) AddSynthetic(genLine, genCol int) {
	b.entries = append(b.entries, Entry{GenLine: genLine, GenCol: genCol, Source: -1, Name: -1})
}

// Len returns the number of recorded segments.
func (b *Builder) Len() int { return len(b.entries) }

// Mappings returns the encoded "mappings" string.
func (b *Builder) Mappings() (string, error) {
	entries := append([]Entry(nil), b.entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].GenLine != entries[j].GenLine {
			return entries[i].GenLine < entries[j].GenLine
		}
		return entries[i].GenCol < entries[j].GenCol
	})

	var (
		sb      strings.Builder
		line    int
		prevCol int
		first   = true
		// source, original line/column and name deltas run across lines
		prevSrc, prevOL, prevOC, prevName int
	)
	for _, e := range entries {
		if e.GenLine < 0 || e.GenCol < 0 {
			return "", fmt.Errorf("%w: negative generated position %d:%d", ErrInvalidMapping, e.GenLine, e.GenCol)
		}
		if !e.Synthetic() && (e.Source >= len(b.sources) || e.OrigLine < 0 || e.OrigCol < 0) {
			return "", fmt.Errorf("%w: bad original position for %d:%d", ErrInvalidMapping, e.GenLine, e.GenCol)
		}
		for line < e.GenLine {
			sb.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false

		appendVLQ(&sb, e.GenCol-prevCol)
		prevCol = e.GenCol
		if e.Synthetic() {
			continue
		}
		appendVLQ(&sb, e.Source-prevSrc)
		appendVLQ(&sb, e.OrigLine-prevOL)
		appendVLQ(&sb, e.OrigCol-prevOC)
		prevSrc, prevOL, prevOC = e.Source, e.OrigLine, e.OrigCol
		if e.Name >= 0 {
			appendVLQ(&sb, e.Name-prevName)
			prevName = e.Name
		}
	}
	return sb.String(), nil
}

// Payload encodes the collected segments as source map JSON.
func (b *Builder) Payload() (Payload, error) {
	mappings, err := b.Mappings()
	if err != nil {
		return nil, err
	}
	out := payloadJSON{
		Version:        Version,
		File:           b.file,
		Sources:        append([]string{}, b.sources...),
		SourcesContent: b.contents,
		Names:          append([]string{}, b.names...),
		Mappings:       mappings,
	}
	if b.stringVersion {
		out.Version = fmt.Sprint(Version)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return Payload(data), nil
}
