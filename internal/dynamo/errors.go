package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for resolution and propagation.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDegenerateElements indicates elements that cannot be propagated or
	// converted: non-positive semi-major axis, non-positive parent mass or
	// non-finite values.
	ErrDegenerateElements = errors.New("dynamo: degenerate element set")

	// ErrUnboundOrbit indicates eccentricity outside [0, 1).
	ErrUnboundOrbit = errors.New("dynamo: eccentricity outside bound-orbit range")

	// ErrUnknownBody indicates a reference to a body that does not exist.
	ErrUnknownBody = errors.New("dynamo: unknown body")

	// ErrDuplicateBody indicates two bodies share an identity.
	ErrDuplicateBody = errors.New("dynamo: duplicate body")

	// ErrUnresolvable indicates a dependency cycle among bodies.
	ErrUnresolvable = errors.New("dynamo: unresolvable body dependencies")

	// ErrMissingInfluencer indicates a body whose influencers are not live.
	ErrMissingInfluencer = errors.New("dynamo: influencer not present")
)

// BodyError wraps an error with the body it concerns.
type BodyError struct {
	Body    BodyID
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("body %q: %v", e.Body, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}

// ForBody wraps err with the body id. A nil err stays nil.
func ForBody(id BodyID, err error) error {
	if err == nil {
		return nil
	}
	return &BodyError{Body: id, Wrapped: err}
}
