// internal/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDemandeNotFound means the demande identifier did not resolve.
	ErrDemandeNotFound = errors.New("demande not found")

	// ErrUnknownStatus means the caller supplied a target status code that is
	// not in the registry.
	ErrUnknownStatus = errors.New("unknown status code")

	// ErrCorruptStatus means the status code stored on a demande is not in the
	// registry. It is kept distinct from ErrUnknownStatus so operators can
	// tell bad input from a corrupt record.
	ErrCorruptStatus = errors.New("demande carries an unregistered status code")

	// ErrConcurrentUpdate means the guarded status update matched no row: the
	// demande moved to another status between validation and write.
	ErrConcurrentUpdate = errors.New("demande status changed concurrently")
)

// IllegalTransitionError reports a status move forbidden by the transition
// table, carrying the legal alternatives for the message.
type IllegalTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *IllegalTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("transition %s -> %s refused: %s is a terminal state", e.From.Name, e.To.Name, e.From.Name)
	}
	names := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		names[i] = s.Name
	}
	return fmt.Sprintf("transition %s -> %s refused: allowed from %s are %s",
		e.From.Name, e.To.Name, e.From.Name, strings.Join(names, ", "))
}

// ValidateTransition checks the move against the table and returns a typed
// error when it is forbidden.
func ValidateTransition(from, to Status) error {
	if CanTransition(from.Code, to.Code) {
		return nil
	}
	return &IllegalTransitionError{From: from, To: to, Allowed: AllowedNext(from)}
}
