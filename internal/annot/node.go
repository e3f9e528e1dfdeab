package annot

import (
	"strings"
)

// InternalTag marks nodes describing declarations the user never wrote.
const InternalTag = "internal"

// Completion is one candidate offered at a `^|` marker.
type Completion struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// Node is a positioned piece of type-checking output. Start, Line and
// Character address the same location in the node's document: Start is a
// byte index, Line and Character are 0-based, Character counts bytes.
type Node struct {
	Kind      Kind `json:"kind"`
	Start     int  `json:"start"`
	Line      int  `json:"line"`
	Character int  `json:"character"`
	Length    int  `json:"length"`

	// Target is the identifier the node is about.
	Target string   `json:"target,omitempty"`
	Tags   []string `json:"tags,omitempty"`

	Text     string   `json:"text,omitempty"`
	Docs     string   `json:"docs,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Code     string   `json:"code,omitempty"`

	// Name is the tag name of a KindTag node.
	Name string `json:"name,omitempty"`

	Completions       []Completion `json:"completions,omitempty"`
	CompletionsPrefix string       `json:"completionsPrefix,omitempty"`
}

// IsInternal reports whether any tag mentions "internal".
func (n *Node) IsInternal() bool {
	for _, tag := range n.Tags {
		if strings.Contains(tag, InternalTag) {
			return true
		}
	}
	return false
}

// End returns the byte index right after the node.
func (n *Node) End() int {
	return n.Start + n.Length
}
