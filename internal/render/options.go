package render

import (
	"fmt"
	"strings"
)

// Format selects the output encoding.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatYAML
	FormatMsgpack
	FormatShort
)

func (f Format) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	case FormatShort:
		return "short"
	}
	return "unknown"
}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack":
		return FormatMsgpack, nil
	case "short":
		return FormatShort, nil
	}
	return FormatPretty, fmt.Errorf("unknown format %q (expected pretty|json|yaml|msgpack|short)", s)
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) mode() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	}
	return "auto"
}

// Opts configures every output format. Pretty-only fields are ignored by
// the structured encoders.
type Opts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Context prints the source line under each node.
	Context bool
	// Timings adds per-stage durations.
	Timings bool
	// Max limits the number of nodes per document, 0 means unlimited.
	Max int
}
