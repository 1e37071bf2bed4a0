package interview

import (
	"errors"
	"fmt"

	"github.com/hireflow/interviewer/internal/utils"
)

// Error kinds returned by the controller. Every returned error is a
// *utils.AppError wrapping one of these, so callers match with errors.Is.
var (
	ErrLoad         = errors.New("interview: questions could not be loaded")
	ErrDeviceAccess = errors.New("interview: capture device unavailable")
	ErrSubmission   = errors.New("interview: answer submission failed")
	ErrCompletion   = errors.New("interview: completion failed")
	ErrInvalidState = errors.New("interview: operation not valid in current state")
	ErrEmptyAnswer  = errors.New("interview: answer text is empty")
	ErrClosed       = errors.New("interview: controller closed")
)

func fail(code utils.Code, op, msg string, kind, cause error) error {
	if cause != nil {
		kind = fmt.Errorf("%w: %w", kind, cause)
	}
	return utils.E(code, op, msg, kind)
}

func invalidState(op, msg string) error {
	return fail(utils.CodePrecondition, op, msg, ErrInvalidState, nil)
}
