// Package apperr defines the error taxonomy shared by the bridge, adapters and transports.
package apperr

import "errors"

var (
	// ErrAccessDenied means the target application could not be reached or scripted.
	ErrAccessDenied = errors.New("access denied")
	// ErrValidation means a required parameter was missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrExecution means the automation payload failed, exited nonzero or timed out.
	ErrExecution = errors.New("execution failed")
	// ErrUnsupported marks operations the automation surface cannot perform.
	ErrUnsupported = errors.New("not supported")
	ErrNotFound    = errors.New("not found")
)
