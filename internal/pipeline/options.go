package pipeline

import (
	"fmt"
	"slices"

	"glint/internal/extract"
)

// mergeOptions layers compiler options: variant defaults, then create-level
// options, then run options. RequiredTypes are appended to the "types" list
// when missing; the caller's entries keep their order.
func mergeOptions(v Variant, layers ...map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(v.Defaults))
	for k, val := range v.Defaults {
		merged[k] = val
	}
	for _, layer := range layers {
		for k, val := range layer {
			merged[k] = val
		}
	}
	if len(v.RequiredTypes) == 0 {
		return merged, nil
	}

	var types []string
	if raw, ok := merged[extract.OptTypes]; ok && raw != nil {
		list, err := extract.StringList(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", extract.ErrCompilerOption, extract.OptTypes, err)
		}
		for _, t := range list {
			if !slices.Contains(types, t) {
				types = append(types, t)
			}
		}
	}
	for _, t := range v.RequiredTypes {
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	merged[extract.OptTypes] = types
	return merged, nil
}

// overlay merges option layers without variant handling.
func overlay(layers ...map[string]any) map[string]any {
	var out map[string]any
	for _, layer := range layers {
		for k, val := range layer {
			if out == nil {
				out = make(map[string]any)
			}
			out[k] = val
		}
	}
	return out
}
