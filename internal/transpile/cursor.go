package transpile

import (
	"strings"
)

// cursor walks the original document byte by byte
type cursor struct {
	src string
	off int
}

func (c *cursor) eof() bool {
	return c.off >= len(c.src)
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.off]
}

func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.src[c.off]
	c.off++
	return b
}

func (c *cursor) hasPrefix(p string) bool {
	return strings.HasPrefix(c.src[c.off:], p)
}

// hasTag reports whether an opening tag called name starts at the cursor.
func (c *cursor) hasTag(name string) bool {
	if !c.hasPrefix("<" + name) {
		return false
	}
	i := c.off + 1 + len(name)
	return i == len(c.src) || isTagBoundary(c.src[i])
}

// index returns the absolute offset of sub at or after from, or -1.
func (c *cursor) index(from int, sub string) int {
	if from > len(c.src) {
		return -1
	}
	i := strings.Index(c.src[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

func isTagBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// openTagEnd returns the offset of the '>' closing the tag that starts at
// start, skipping quoted attribute values.
func openTagEnd(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch c := src[i]; c {
		case '"', '\'':
			j := strings.IndexByte(src[i+1:], c)
			if j < 0 {
				return -1
			}
			i += j + 1
		case '>':
			return i
		}
	}
	return -1
}

// matchBrace returns the offset of the '}' matching the '{' at open.
// Go string and rune literals are skipped so braces inside them do not count.
func matchBrace(src string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		case '"', '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return -1, false
			}
			i = j
		case '`':
			j := strings.IndexByte(src[i+1:], '`')
			if j < 0 {
				return -1, false
			}
			i += j + 1
		}
	}
	return -1, false
}

// trim shrinks [a, b) past surrounding whitespace.
func trim(src string, a, b int) (int, int) {
	for a < b && isSpace(src[a]) {
		a++
	}
	for b > a && isSpace(src[b-1]) {
		b--
	}
	return a, b
}
