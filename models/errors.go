package models

import (
	"errors"
	"fmt"
)

// ErrReauthenticationRequired is returned by identity-destructive operations
// when the identity provider demands a freshly issued credential proof. The
// caller should prompt for the current password instead of retrying blindly.
var ErrReauthenticationRequired = errors.New("reauthentication required")

// ValidationError reports bad input. No remote call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchError reports a failed remote read. The local projection is unchanged.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a failed remote write. The local projection is unchanged.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConcurrentMutationError rejects a second mutation on a record that already
// has one in flight. The second call has no local effect.
type ConcurrentMutationError struct {
	ID string
}

func (e *ConcurrentMutationError) Error() string {
	return fmt.Sprintf("record %s already has a mutation in flight", e.ID)
}

// IndexError reports a comment index that is out of range of the session's
// local snapshot.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("comment index %d out of range (%d comments)", e.Index, e.Length)
}

// CascadeError reports an account-removal cascade aborted mid-sequence. It is
// fatal to the deletion flow: remaining state must be verified manually, never
// auto-resumed. Deleted and Total count owned media records when the media
// step failed.
type CascadeError struct {
	Step    string
	Deleted int
	Total   int
	Err     error
}

func (e *CascadeError) Error() string {
	if e.Step == "media" {
		return fmt.Sprintf("account removal aborted: %d of %d media records deleted: %v", e.Deleted, e.Total, e.Err)
	}
	return fmt.Sprintf("account removal aborted at %s step: %v", e.Step, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
