package domain

import "github.com/pkg/errors"

// RevertError is a contract call that reverted, as opposed to a transport failure.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// NewRevert creates a RevertError with the given reason.
func NewRevert(reason string) error {
	return &RevertError{Reason: reason}
}

// AsRevert extracts a RevertError from the chain.
func AsRevert(err error) (*RevertError, bool) {
	var rev *RevertError
	if errors.As(err, &rev) {
		return rev, true
	}
	return nil, false
}
