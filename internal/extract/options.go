package extract

import (
	"fmt"
	"go/version"
	"strings"
)

// Compiler option keys understood by the extractor. Other keys are ignored
// so variant defaults meant for other tools pass through untouched.
const (
	OptGoVersion = "goVersion"
	OptTypes     = "types"
	OptStrict    = "strict"
)

type compilerConfig struct {
	goVersion string
	types     []string
	strict    bool
}

func parseCompilerOptions(opts map[string]any) (compilerConfig, error) {
	var cfg compilerConfig
	if v, ok := opts[OptGoVersion]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return cfg, fmt.Errorf("%w: %s must be a string, got %T", ErrCompilerOption, OptGoVersion, v)
		}
		if s != "" && !version.IsValid(s) {
			return cfg, fmt.Errorf("%w: %s %q is not a Go version", ErrCompilerOption, OptGoVersion, s)
		}
		cfg.goVersion = s
	}
	if v, ok := opts[OptTypes]; ok && v != nil {
		types, err := StringList(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %w", ErrCompilerOption, OptTypes, err)
		}
		cfg.types = types
	}
	if v, ok := opts[OptStrict]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return cfg, fmt.Errorf("%w: %s must be a bool, got %T", ErrCompilerOption, OptStrict, v)
		}
		cfg.strict = b
	}
	return cfg, nil
}

// StringList accepts []string, []any of strings or a comma separated string.
func StringList(v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is %T, not a string", item, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported list type %T", v)
}
