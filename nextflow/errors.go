package nextflow

import (
	"errors"
	"fmt"
)

// ErrPipelineExecution is matched by every *PipelineExecutionError
var ErrPipelineExecution = errors.New("pipeline execution failed")

// PipelineExecutionError is returned when the runner exits non-zero.
// ExitCode is 128+signal when the runner was killed by a signal.
type PipelineExecutionError struct {
	ExitCode int
}

func (e *PipelineExecutionError) Error() string {
	return fmt.Sprintf("nextflow exited with status %d", e.ExitCode)
}

func (e *PipelineExecutionError) Unwrap() error { return ErrPipelineExecution }
