package source

// Span is a half-open byte range [Start, End) inside one document.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// SpanOf builds a span from a start index and a length, clamping negative
// inputs to zero.
func SpanOf(start, length int) Span {
	if start < 0 {
		start = 0
	}
	if length < 0 {
		length = 0
	}
	return Span{Start: mustUint32(start), End: mustUint32(start + length)}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}
