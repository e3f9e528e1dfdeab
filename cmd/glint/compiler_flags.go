package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseCompilerFlags turns repeated --compiler key=value flags into compiler
// options. true/false become bools and integers become ints; everything
// else stays a string, so "types=a,b" reaches the extractor as a list.
func parseCompilerFlags(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	opts := make(map[string]any, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--compiler: expected key=value, got %q", kv)
		}
		opts[key] = compilerValue(strings.TrimSpace(value))
	}
	return opts, nil
}

func compilerValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
