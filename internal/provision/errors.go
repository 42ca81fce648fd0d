package provision

import "fmt"

// Kind classifies a provisioning failure. The handler layer maps kinds to
// response statuses; the saga itself only decides which kind applies and
// whether compensation ran.
type Kind int

const (
	// KindMalformed: bad request input, rejected before any remote call.
	KindMalformed Kind = iota
	// KindConfig: the service is missing backend configuration.
	KindConfig
	// KindCredential: the elevated credential failed its self-check.
	KindCredential
	// KindUpstreamCreate: the identity backend refused to create the account.
	// The backend's own status is passed through.
	KindUpstreamCreate
	// KindUpstreamWrite: a secondary write (profile or role row) failed after
	// the identity was created; compensation was attempted.
	KindUpstreamWrite
	// KindInternal: anything else.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed-request"
	case KindConfig:
		return "configuration-missing"
	case KindCredential:
		return "credential-invalid"
	case KindUpstreamCreate:
		return "upstream-create-failed"
	case KindUpstreamWrite:
		return "upstream-secondary-write-failed"
	default:
		return "unexpected-internal"
	}
}

// Error is the structured failure a provisioning caller receives: a summary,
// the underlying cause as details, and the status to report. Compensation
// failures never replace the original error carried here.
type Error struct {
	Kind    Kind
	Summary string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Summary
	}
	return fmt.Sprintf("%s: %v", e.Summary, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Details returns the underlying cause as a human-readable string.
func (e *Error) Details() string {
	if e.cause == nil {
		return ""
	}
	return e.cause.Error()
}

func newError(kind Kind, summary string, status int, cause error) *Error {
	return &Error{Kind: kind, Summary: summary, Status: status, cause: cause}
}
