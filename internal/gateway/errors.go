package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

// Failure kinds.
const (
	KindEmpty     Kind = "empty"
	KindMalformed Kind = "malformed"
	KindInvalid   Kind = "invalid"
	KindUpstream  Kind = "upstream"
)

// Error is returned by every gateway call that fails. No partial result is
// ever returned together with an Error.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s: %s response", e.Op, e.Kind)
	}
	return fmt.Sprintf("gateway %s: %s response: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a gateway error of kind k.
func IsKind(err error, k Kind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == k
}
