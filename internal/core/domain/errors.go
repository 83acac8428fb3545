package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// Domain rejections (collisions, evictions, vanished residues) are not errors
// and never surface through these values.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an immutable entity already exists with different content.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration Errors.

	// ErrConfig indicates an invalid or inconsistent configuration.
	ErrConfig = errors.New("configuration error")

	// ErrMissingArtifact indicates a required input file is absent.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrDurationMismatch indicates the equilibration parameters do not
	// match the requested cycle duration.
	ErrDurationMismatch = errors.New("equilibration duration mismatch")

	// Engine Errors.

	// ErrEngineFailed indicates an external engine exited with a non-zero status.
	ErrEngineFailed = errors.New("engine failed")

	// ErrEngineTimeout indicates an external engine exceeded its deadline.
	ErrEngineTimeout = errors.New("engine timed out")

	// Extraction Errors.

	// ErrPoseNotFound indicates the best-ranked pose block is absent from engine output.
	ErrPoseNotFound = errors.New("best pose not found")

	// ErrMalformedRecord indicates a fixed-column record could not be parsed.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrCheckpointCorrupt indicates persisted progress could not be decoded.
	// Stores return it; the checkpoint service recovers from it.
	ErrCheckpointCorrupt = errors.New("checkpoint corrupt")
)

// Step names a pipeline step for error reporting.
type Step string

// Docking controller steps.
const (
	StepInit        Step = "init"
	StepEngineSetup Step = "engine_setup"
	StepDock        Step = "dock"
	StepExtractPose Step = "extract_pose"
	StepCollision   Step = "collision"
	StepAccept      Step = "accept"
	StepMask        Step = "mask"
	StepCheckpoint  Step = "checkpoint"
)

// Washing cycle steps.
const (
	StepValidateInput        Step = "validate_input"
	StepRunEquilibration     Step = "run_equilibration"
	StepExtractFinalFrame    Step = "extract_final_frame"
	StepComputeDisplacements Step = "compute_displacements"
	StepEvict                Step = "evict"
)

// StepError identifies the pipeline step that failed.
type StepError struct {
	// Step is the failed step.
	Step Step

	// Iteration is the seed or cycle number, zero when not applicable.
	Iteration int

	// Err is the underlying cause.
	Err error
}

func (e *StepError) Error() string {
	if e.Iteration != 0 {
		return fmt.Sprintf("%s (iteration %d): %v", e.Step, e.Iteration, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err with the step that produced it.
// A nil err yields nil.
func NewStepError(step Step, iteration int, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Iteration: iteration, Err: err}
}

// FailedStep returns the step recorded in err, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig) ||
		errors.Is(err, ErrMissingArtifact) ||
		errors.Is(err, ErrDurationMismatch)
}

// IsEngineError reports whether err is an external engine failure.
func IsEngineError(err error) bool {
	return errors.Is(err, ErrEngineFailed) || errors.Is(err, ErrEngineTimeout)
}

// IsExtractionError reports whether err is an extraction failure.
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrPoseNotFound) || errors.Is(err, ErrMalformedRecord)
}
