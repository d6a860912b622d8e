package business

import (
	"errors"
	"fmt"
)

// NotFoundError reports an absent entity or media file. Its message is the
// exact error body served to clients: "<Kind> not found".
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// RequestError reports an invalid client request, translated to a 400 at
// the boundary.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	return e.Msg
}

func IsInvalidRequest(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// ForbiddenError reports an operation the caller may not perform, such as
// deleting a favorites playlist.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string {
	return e.Msg
}

func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// UnsatisfiableRangeError reports a requested byte window that cannot be
// served from a blob of the given size, translated to a 416.
type UnsatisfiableRangeError struct {
	Total int64
}

func (e *UnsatisfiableRangeError) Error() string {
	return fmt.Sprintf("requested range not satisfiable for size %d", e.Total)
}

func IsUnsatisfiableRange(err error) bool {
	var re *UnsatisfiableRangeError
	return errors.As(err, &re)
}
