package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFatalInput matches every FatalInputError via errors.Is.
	ErrFatalInput = errors.New("slprescale: fatal input")

	// ErrInvalidScale is wrapped when a source or target dimension is not positive.
	ErrInvalidScale = errors.New("slprescale: invalid scale")

	// ErrMissingStructure is returned by document readers when a table,
	// container or field is absent. Callers log it and move on.
	ErrMissingStructure = errors.New("slprescale: missing structure")

	// ErrAlreadyRescaled is wrapped when the ledger shows the input was
	// produced by an earlier rescale and the caller asked to refuse it.
	ErrAlreadyRescaled = errors.New("slprescale: input already rescaled")
)

// FatalInputError aborts a run before the output is touched: the input could
// not be read, the output could not be created, or the scale is invalid.
type FatalInputError struct {
	Op   string
	Path string
	Err  error
}

func (e *FatalInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FatalInputError) Unwrap() error { return e.Err }

// Is reports ErrFatalInput as a match so callers need not type-assert.
func (e *FatalInputError) Is(target error) bool { return target == ErrFatalInput }

// FrameStage names the step of frame processing that failed.
type FrameStage string

const (
	StageDecode FrameStage = "decode"
	StageEncode FrameStage = "encode"
)

// FrameError reports one frame that could not be resized. The frame keeps
// its original bytes.
type FrameError struct {
	Video string
	Index int
	Stage FrameStage
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s frame %d: %s: %v", e.Video, e.Index, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
