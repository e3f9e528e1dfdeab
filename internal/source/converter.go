package source

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfBounds is returned when an index or a (line, column) pair does not
// address a location inside the converter's text.
var ErrOutOfBounds = errors.New("position out of bounds")

// Converter maps between flat byte offsets and 0-based (line, column) pairs
// for one fixed text. It is immutable after construction and safe for
// concurrent use.
type Converter struct {
	size    int
	lineIdx []uint32
}

// NewConverter builds the line index for text.
func NewConverter(text string) *Converter {
	return &Converter{size: len(text), lineIdx: buildLineIndexString(text)}
}

// Converter returns a position converter over the file content.
func (f *File) Converter() *Converter {
	return &Converter{size: len(f.Content), lineIdx: f.LineIdx}
}

// Len returns the length of the text in bytes.
func (c *Converter) Len() int {
	return c.size
}

// LineCount returns the number of lines; an empty text has one empty line.
func (c *Converter) LineCount() int {
	return len(c.lineIdx) + 1
}

func (c *Converter) lineStart(line int) int {
	if line == 0 {
		return 0
	}
	return int(c.lineIdx[line-1]) + 1
}

func (c *Converter) lineEnd(line int) int {
	if line < len(c.lineIdx) {
		return int(c.lineIdx[line])
	}
	return c.size
}

// LineLen returns the length of line excluding its terminator.
func (c *Converter) LineLen(line int) (int, error) {
	if line < 0 || line >= c.LineCount() {
		return 0, fmt.Errorf("%w: line %d not in [0, %d)", ErrOutOfBounds, line, c.LineCount())
	}
	return c.lineEnd(line) - c.lineStart(line), nil
}

// IndexToPosition converts a byte offset in [0, Len()] into a (line, column)
// pair. An offset pointing at a '\n' belongs to the line it terminates.
func (c *Converter) IndexToPosition(index int) (LineCol, error) {
	if index < 0 || index > c.size {
		return LineCol{}, fmt.Errorf("%w: index %d not in [0, %d]", ErrOutOfBounds, index, c.size)
	}
	// бинпоиск: количество '\n' строго до index и есть номер строки
	line := sort.Search(len(c.lineIdx), func(i int) bool { return int(c.lineIdx[i]) >= index })
	return LineCol{Line: line, Col: index - c.lineStart(line)}, nil
}

// PositionToIndex converts a (line, column) pair into a byte offset. The
// column may equal the line length, which addresses the end of the line.
func (c *Converter) PositionToIndex(line, col int) (int, error) {
	if line < 0 || line >= c.LineCount() {
		return 0, fmt.Errorf("%w: line %d not in [0, %d)", ErrOutOfBounds, line, c.LineCount())
	}
	start, end := c.lineStart(line), c.lineEnd(line)
	if col < 0 || start+col > end {
		return 0, fmt.Errorf("%w: column %d not in [0, %d] on line %d", ErrOutOfBounds, col, end-start, line)
	}
	return start + col, nil
}

// SpanPositions resolves both ends of a span.
func (c *Converter) SpanPositions(span Span) (start, end LineCol, err error) {
	if start, err = c.IndexToPosition(int(span.Start)); err != nil {
		return LineCol{}, LineCol{}, err
	}
	if end, err = c.IndexToPosition(int(span.End)); err != nil {
		return LineCol{}, LineCol{}, err
	}
	return start, end, nil
}
