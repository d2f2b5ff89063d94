package leadconvert

import (
	"errors"
	"fmt"
)

// Reason classifies why a conversion did not happen.
type Reason string

const (
	ReasonNotFound         Reason = "not_found"
	ReasonForbidden        Reason = "forbidden"
	ReasonAlreadyConverted Reason = "already_converted"
	ReasonInvalidStatus    Reason = "invalid_status"
	ReasonNameCollision    Reason = "name_collision"
	ReasonInternal         Reason = "internal"
)

// Failure is the error returned for every refused or failed conversion.
// Message is safe to show to the user.
type Failure struct {
	Reason  Reason
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("lead conversion %s: %s: %v", f.Reason, f.Message, f.Err)
	}
	return fmt.Sprintf("lead conversion %s: %s", f.Reason, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// ReasonOf returns the failure reason carried by err. Errors that are not
// a *Failure are internal; nil has no reason.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonInternal
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "Error converting lead. Please try again."
}

// Sentinels a Store returns so the workflow can classify storage outcomes.
var (
	ErrLeadNotFound     = errors.New("leadconvert: lead not found")
	ErrAccountNameTaken = errors.New("leadconvert: account name taken")
)

func fail(reason Reason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
