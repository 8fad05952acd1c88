package lifecycle

import (
	"fmt"

	"postforge/internal/models"
)

// ValidationError reports malformed or missing caller input. It is raised
// before any collaborator is called; no store mutation is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PreconditionError means the idea's recorded state does not permit the
// requested transition. No mutation is attempted.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// QuotaExceededError is the admission controller's rejection. It carries
// the first platform and UTC calendar day that failed the check.
type QuotaExceededError struct {
	Platform models.Platform
	Day      string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("frequency limit reached for %s on %s", e.Platform, e.Day)
}

// NotFoundError means the referenced idea does not exist in the record store
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("idea %s not found", e.ID)
}

// UpstreamError wraps a failure from the generative backend or the
// automation trigger. For generation it aborts the whole operation; for
// the automation trigger it is reported but does not invalidate the
// already-committed schedule mutation.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
