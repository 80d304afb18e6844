package telemetry

import "errors"

var (
	// ErrNotConnected indicates no vehicle is selected.
	ErrNotConnected = errors.New("not connected")
	// ErrNoState indicates no state was received before the deadline.
	ErrNoState = errors.New("no state received")
)
