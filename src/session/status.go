package session

import "errors"

// Status is the outcome of one screenshot request.
type Status int

const (
	StatusSuccess Status = iota
	// StatusCancel means the user dismissed the selection or the dialog.
	StatusCancel
	// StatusCallingError means the request was invalid; nothing was run.
	StatusCallingError
	// StatusExecutionError means selection, capture, loading or delivery failed.
	StatusExecutionError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancel:
		return "cancel"
	case StatusCallingError:
		return "calling-error"
	case StatusExecutionError:
		return "execution-error"
	default:
		return "unknown"
	}
}

// StatusOf classifies an error returned by Shoot or Execute.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if errors.Is(err, ErrCancelled) {
		return StatusCancel
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return StatusCallingError
	}
	return StatusExecutionError
}
