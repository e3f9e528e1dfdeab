package annot

// Kind classifies an annotation node.
type Kind string

const (
	KindHover      Kind = "hover"
	KindQuery      Kind = "query"
	KindError      Kind = "error"
	KindCompletion Kind = "completion"
	KindTag        Kind = "tag"
	KindHighlight  Kind = "highlight"
)

// Kinds lists every known kind in presentation order.
func Kinds() []Kind {
	return []Kind{KindHover, KindQuery, KindError, KindCompletion, KindTag, KindHighlight}
}

// ParseKind accepts the textual form of a kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

func (k Kind) String() string {
	return string(k)
}

// Severity defines the importance of an error node.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for soft type errors.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
