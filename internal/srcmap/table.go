package srcmap

import (
	"fmt"
	"sort"
)

// Entry is one decoded mapping segment. Source and Name are -1 when absent;
// Source == -1 marks a synthetic segment with no original counterpart.
type Entry struct {
	GenLine  int
	GenCol   int
	Source   int
	OrigLine int
	OrigCol  int
	Name     int
}

// Synthetic reports whether the segment covers generated-only text.
func (e Entry) Synthetic() bool {
	return e.Source < 0
}

// Original is the resolved counterpart of a derived position.
type Original struct {
	Source string
	Line   int
	Col    int
	Name   string
}

// Table answers derived -> original position queries. It is immutable.
type Table struct {
	version int
	file    string
	sources []string
	names   []string
	lines   [][]Entry // по строкам derived-текста, внутри строки по колонке
	size    int
}

// Parse validates a payload and builds its lookup table. Every failure wraps
// ErrInvalidMapping.
func Parse(p Payload) (*Table, error) {
	raw, version, err := decodePayload(p)
	if err != nil {
		return nil, err
	}
	t := &Table{
		version: version,
		file:    raw.File,
		sources: *raw.Sources,
		names:   raw.Names,
	}
	if err := t.decodeMappings(*raw.Mappings); err != nil {
		return nil, err
	}
	if err := t.checkMonotonic(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) decodeMappings(mappings string) error {
	var (
		line    int
		segment [5]int // накопленные значения: col, source, origLine, origCol, name
		current []Entry
	)
	flush := func() {
		sort.SliceStable(current, func(i, j int) bool { return current[i].GenCol < current[j].GenCol })
		t.lines = append(t.lines, current)
		t.size += len(current)
		current = nil
	}

	pos := 0
	for pos <= len(mappings) {
		if pos == len(mappings) {
			flush()
			break
		}
		switch mappings[pos] {
		case ';':
			flush()
			line++
			segment[0] = 0
			pos++
			continue
		case ',':
			// пустой сегмент допустим
			pos++
			continue
		}

		var (
			fields [5]int
			n      int
		)
		for pos < len(mappings) && mappings[pos] != ',' && mappings[pos] != ';' {
			if n == len(fields) {
				return invalid("segment at %d:%d has more than 5 fields", line, segment[0])
			}
			v, next, err := decodeVLQ(mappings, pos)
			if err != nil {
				return invalid("line %d: %v", line, err)
			}
			fields[n] = v
			n++
			pos = next
		}
		if n == 2 || n == 3 {
			return invalid("segment on line %d has %d fields", line, n)
		}

		segment[0] += fields[0]
		entry := Entry{GenLine: line, GenCol: segment[0], Source: -1, Name: -1}
		if entry.GenCol < 0 {
			return invalid("negative generated column on line %d", line)
		}
		if n >= 4 {
			for i := 1; i < n; i++ {
				segment[i] += fields[i]
			}
			entry.Source, entry.OrigLine, entry.OrigCol = segment[1], segment[2], segment[3]
			if entry.Source < 0 || entry.Source >= len(t.sources) {
				return invalid("source index %d out of range at %d:%d", entry.Source, line, entry.GenCol)
			}
			if entry.OrigLine < 0 || entry.OrigCol < 0 {
				return invalid("negative original position at %d:%d", line, entry.GenCol)
			}
			if n == 5 {
				entry.Name = segment[4]
				if entry.Name < 0 || entry.Name >= len(t.names) {
					return invalid("name index %d out of range at %d:%d", entry.Name, line, entry.GenCol)
				}
			}
		}
		current = append(current, entry)
	}
	return nil
}

// checkMonotonic rejects tables whose mapped entries invert the original
// order of any single source.
func (t *Table) checkMonotonic() error {
	last := make(map[int]Entry, len(t.sources))
	for _, line := range t.lines {
		for _, e := range line {
			if e.Synthetic() {
				continue
			}
			prev, ok := last[e.Source]
			if ok && (e.OrigLine < prev.OrigLine || (e.OrigLine == prev.OrigLine && e.OrigCol < prev.OrigCol)) {
				return invalid("segment %d:%d maps to %d:%d, before %d:%d mapped at %d:%d",
					e.GenLine, e.GenCol, e.OrigLine, e.OrigCol,
					prev.OrigLine, prev.OrigCol, prev.GenLine, prev.GenCol)
			}
			last[e.Source] = e
		}
	}
	return nil
}

// Resolve returns the original position of the derived (line, col). It picks
// the greatest entry on the same derived line whose column does not exceed
// col; no such entry, or a synthetic one, yields false.
func (t *Table) Resolve(line, col int) (Original, bool) {
	if line < 0 || line >= len(t.lines) || col < 0 {
		return Original{}, false
	}
	segs := t.lines[line]
	i := sort.Search(len(segs), func(i int) bool { return segs[i].GenCol > col }) - 1
	if i < 0 || segs[i].Synthetic() {
		return Original{}, false
	}
	e := segs[i]
	orig := Original{Source: t.sources[e.Source], Line: e.OrigLine, Col: e.OrigCol}
	if e.Name >= 0 {
		orig.Name = t.names[e.Name]
	}
	return orig, true
}

// Entries returns every decoded segment in derived order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.size)
	for _, line := range t.lines {
		out = append(out, line...)
	}
	return out
}

// Len returns the number of decoded segments.
func (t *Table) Len() int { return t.size }

// Version returns the normalized version field.
func (t *Table) Version() int { return t.version }

// File returns the "file" field of the payload.
func (t *Table) File() string { return t.file }

// Sources returns the original document names.
func (t *Table) Sources() []string {
	return append([]string(nil), t.sources...)
}

func (t *Table) String() string {
	return fmt.Sprintf("srcmap.Table{v%d, %d lines, %d segments}", t.version, len(t.lines), t.size)
}
