package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired is returned when a mutating action runs without a session.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrRemoteStore matches every *RemoteError through errors.Is.
	ErrRemoteStore = errors.New("remote store failure")

	// ErrPostNotFound is returned when an action names a post that is not in the feed.
	ErrPostNotFound = errors.New("post not found in feed")
)

// RemoteError wraps a failed record store call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is makes every RemoteError match ErrRemoteStore.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteStore
}

// asRemoteError keeps an existing RemoteError and wraps anything else.
func asRemoteError(op string, err error) error {
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}
