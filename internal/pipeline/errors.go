package pipeline

import (
	"errors"
	"fmt"

	"glint/internal/remap"
	"glint/internal/source"
	"glint/internal/srcmap"
	"glint/internal/transpile"
)

// Stage names one step of a run.
type Stage string

const (
	StageTranspile Stage = "transpile"
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageAssemble  Stage = "assemble"
)

// Errors callers match with errors.Is. They are the layer sentinels
// re-exported so users of the pipeline need not import every layer.
var (
	ErrTranspile         = transpile.ErrTranspile
	ErrInvalidMapping    = srcmap.ErrInvalidMapping
	ErrContractViolation = remap.ErrContractViolation
	ErrOutOfBounds       = source.ErrOutOfBounds

	// ErrNotTranspiled is returned by Transpile for variants that pass
	// straight to the extractor.
	ErrNotTranspiled = errors.New("variant is not transpiled")
)

// StageError reports which stage of which run failed.
type StageError struct {
	Stage   Stage
	Variant string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Variant, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
