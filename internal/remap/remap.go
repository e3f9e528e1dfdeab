// Package remap moves annotation nodes from derived-document coordinates
// back into the original document and drops the ones the transpiler made up.
package remap

import (
	"errors"
	"fmt"
	"strings"

	"glint/internal/annot"
	"glint/internal/source"
	"glint/internal/srcmap"
)

// ErrContractViolation is returned when a collaborator hands over data that
// breaks an invariant, for example a mapping that points outside the
// original document.
var ErrContractViolation = errors.New("contract violation")

// Resolver answers derived -> original position queries. *srcmap.Table
// implements it.
type Resolver interface {
	Resolve(line, col int) (srcmap.Original, bool)
}

// Options tell the normalizer which identifiers are scaffolding.
type Options struct {
	// SyntheticTargets are identifiers injected by the transpiler.
	SyntheticTargets []string
	// SyntheticPrefixes match generated identifier families (__render0, __render1, ...).
	SyntheticPrefixes []string
}

// IsSynthetic reports whether target names transpiler scaffolding.
func (o Options) IsSynthetic(target string) bool {
	if target == "" {
		return false
	}
	for _, t := range o.SyntheticTargets {
		if t == target {
			return true
		}
	}
	for _, p := range o.SyntheticPrefixes {
		if strings.HasPrefix(target, p) {
			return true
		}
	}
	return false
}

// Stats counts what happened to the input nodes.
type Stats struct {
	Input     int
	Internal  int
	Synthetic int
	Unmapped  int
	Collapsed int
	Output    int
}

func (s Stats) Dropped() int {
	return s.Internal + s.Synthetic + s.Unmapped + s.Collapsed
}

// Normalize rewrites every node position through table into the document
// described by conv. Nodes keep extractor order; among adjacent nodes of the
// same kind landing on the same index only the later one survives.
func Normalize(nodes []annot.Node, table Resolver, conv *source.Converter, opts Options) ([]annot.Node, Stats, error) {
	stats := Stats{Input: len(nodes)}
	mapped := make([]annot.Node, 0, len(nodes))

	for i := range nodes {
		n := nodes[i]
		if n.IsInternal() {
			stats.Internal++
			continue
		}
		if opts.IsSynthetic(n.Target) {
			stats.Synthetic++
			continue
		}
		orig, ok := table.Resolve(n.Line, n.Character)
		if !ok {
			stats.Unmapped++
			continue
		}
		index, err := conv.PositionToIndex(orig.Line, orig.Col)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %s node at derived %d:%d resolved to %d:%d: %w",
				ErrContractViolation, n.Kind, n.Line, n.Character, orig.Line, orig.Col, err)
		}
		n.Start = index
		n.Line = orig.Line
		n.Character = orig.Col
		mapped = append(mapped, n)
	}

	out := collapse(mapped, &stats)
	stats.Output = len(out)
	return out, stats, nil
}

// collapse keeps the last of each run of adjacent nodes sharing kind and
// start. Runs separated by another node are left alone.
func collapse(nodes []annot.Node, stats *Stats) []annot.Node {
	out := make([]annot.Node, 0, len(nodes))
	for _, n := range nodes {
		if last := len(out) - 1; last >= 0 && out[last].Kind == n.Kind && out[last].Start == n.Start {
			out[last] = n
			stats.Collapsed++
			continue
		}
		out = append(out, n)
	}
	return out
}
