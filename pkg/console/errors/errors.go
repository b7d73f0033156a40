package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrStorage           = errors.New("storage error")
	ErrKubernetes        = errors.New("kubernetes error")
	ErrEventStore        = errors.New("event store error")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRemote            = errors.New("remote error")
)
