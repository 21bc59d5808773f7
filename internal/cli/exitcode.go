package cli

import (
	"context"
	"errors"

	errs "github.com/matzehuels/tspart/pkg/errors"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitInputFormat     = 2
	ExitEmptyInput      = 3
	ExitCoordinateRange = 4
	ExitSolverNotFound  = 5
	ExitSolverExecution = 6
	ExitSolverTimeout   = 7
	ExitInvalidTour     = 8
	ExitWrite           = 9
	ExitInterrupted     = 130 // Standard shell convention for SIGINT
)

var exitCodes = map[errs.Code]int{
	errs.ErrCodeInputFormat:     ExitInputFormat,
	errs.ErrCodeEmptyInput:      ExitEmptyInput,
	errs.ErrCodeCoordinateRange: ExitCoordinateRange,
	errs.ErrCodeSolverNotFound:  ExitSolverNotFound,
	errs.ErrCodeSolverExecution: ExitSolverExecution,
	errs.ErrCodeSolverTimeout:   ExitSolverTimeout,
	errs.ErrCodeInvalidTour:     ExitInvalidTour,
	errs.ErrCodeWrite:           ExitWrite,
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	if code, ok := exitCodes[errs.GetCode(err)]; ok {
		return code
	}
	return ExitError
}
