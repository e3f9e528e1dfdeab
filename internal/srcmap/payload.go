// Package srcmap reads and writes revision 3 source maps, the mapping
// payload exchanged between the transpiler and the annotation normalizer.
//
// Lines and columns are 0-based on both sides of the map; columns count bytes.
package srcmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is the only supported source map revision.
const Version = 3

// ErrInvalidMapping is returned when a payload cannot be turned into a Table.
var ErrInvalidMapping = errors.New("invalid mapping payload")

// Payload is the raw JSON text of a source map.
type Payload []byte

func (p Payload) String() string {
	return string(p)
}

// wire form used by Builder
type payloadJSON struct {
	Version        any      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// decoding form: pointers tell "absent" from "empty"
type rawPayload struct {
	Version        json.RawMessage `json:"version"`
	File           string          `json:"file"`
	SourceRoot     string          `json:"sourceRoot"`
	Sources        *[]string       `json:"sources"`
	SourcesContent []*string       `json:"sourcesContent"`
	Names          []string        `json:"names"`
	Mappings       *string         `json:"mappings"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMapping, fmt.Sprintf(format, args...))
}

// normalizeVersion accepts both the numeric and the textual encoding of the
// version field.
func normalizeVersion(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, invalid("missing version")
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, invalid("version: %v", err)
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, invalid("version %s is not an integer", raw)
	}
	return v, nil
}

func decodePayload(p Payload) (*rawPayload, int, error) {
	if len(bytes.TrimSpace(p)) == 0 {
		return nil, 0, invalid("empty payload")
	}
	var raw rawPayload
	if err := json.Unmarshal(p, &raw); err != nil {
		return nil, 0, invalid("%v", err)
	}
	version, err := normalizeVersion(raw.Version)
	if err != nil {
		return nil, 0, err
	}
	if version != Version {
		return nil, 0, invalid("unsupported version %d", version)
	}
	if raw.Sources == nil {
		return nil, 0, invalid("missing sources")
	}
	if raw.Mappings == nil {
		return nil, 0, invalid("missing mappings")
	}
	return &raw, version, nil
}
