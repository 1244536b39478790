package actions

import (
	"errors"
)

var (
	// ErrPostNotFound is wrapped when no dashboard tile carries the requested title.
	ErrPostNotFound = errors.New("blog post not found")
	// ErrPostDuplicated is wrapped when more than one tile carries the requested title.
	ErrPostDuplicated = errors.New("blog post title is not unique")
)

// AssertionError reports a page condition that did not hold.
// Message is the user-facing text; Expected and Actual carry the compared values.
type AssertionError struct {
	Check    string
	Expected string
	Actual   string
	Message  string
	Err      error
}

func (e *AssertionError) Error() string {
	return e.Message
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// IsAssertion reports whether err is a failed check rather than a driver failure.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
