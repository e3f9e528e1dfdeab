package render

import (
	"fmt"
	"io"
)

// Write renders docs in format. Pretty output ends with a summary line.
func Write(w io.Writer, format Format, docs []Document, opts Opts) error {
	switch format {
	case FormatPretty:
		if err := Pretty(w, docs, opts); err != nil {
			return err
		}
		return PrettySummary(w, Summarize(docs), opts)
	case FormatShort:
		return Short(w, docs, opts)
	case FormatJSON:
		return JSON(w, docs, opts)
	case FormatYAML:
		return YAML(w, docs, opts)
	case FormatMsgpack:
		return Msgpack(w, docs, opts)
	}
	return fmt.Errorf("unsupported format %s", format)
}
