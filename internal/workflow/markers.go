package workflow

import (
	"errors"
	"fmt"
)

// ErrMarkerMissing means the page never showed the expected success text.
var ErrMarkerMissing = errors.New("success marker missing")

const msgRecordNotCreated = "User was not created, please check out your inputs/json"

// Marker is a literal fragment of page text that signals an action succeeded,
// paired with the failure message reported when it is absent.
type Marker struct {
	Text    string
	Failure string
}

var (
	MarkerMSOChanged      = Marker{Text: "MSO successfully changed", Failure: "Was not able to MSO successfully changed"}
	MarkerUserCreated     = Marker{Text: "×CloseUser was created successfully.", Failure: msgRecordNotCreated}
	MarkerEmployeeCreated = Marker{Text: "×CloseEmployee successfully created.", Failure: msgRecordNotCreated}
)

// MarkerError reports a failed success assertion.
type MarkerError struct {
	Marker Marker
}

func (e *MarkerError) Error() string { return e.Marker.Failure }

func (e *MarkerError) Unwrap() error { return ErrMarkerMissing }

// PhaseError wraps whatever stopped a phase.
type PhaseError struct {
	Phase Phase
	State State
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed in state %s: %v", e.Phase, e.State, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
