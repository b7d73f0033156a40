package errors

import "fmt"

// Wrap tags err with sentinel and a short context. The result matches both
// the sentinel and err under errors.Is. A nil err stays nil.
func Wrap(sentinel, err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", sentinel, context, err)
}

func WrapKubernetes(err error, context string) error { return Wrap(ErrKubernetes, err, context) }

func WrapStorage(err error, context string) error { return Wrap(ErrStorage, err, context) }

func WrapInvalid(err error, context string) error { return Wrap(ErrInvalid, err, context) }

func WrapNotFound(err error, context string) error { return Wrap(ErrNotFound, err, context) }

// WrapRemote tags a failure reported by a remote console API.
func WrapRemote(err error, context string) error { return Wrap(ErrRemote, err, context) }

// WrapTransition tags a rejected connection status change.
func WrapTransition(err error, context string) error { return Wrap(ErrInvalidTransition, err, context) }
