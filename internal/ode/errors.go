package ode

import "errors"

// Domain errors for adaptive integration.
var (
	// ErrNoErrorEstimate indicates adaptive control was combined with a
	// stepper that produces no local error estimate.
	ErrNoErrorEstimate = errors.New("ode: stepper provides no error estimate, cannot adapt step size")

	// ErrInvalidConfig indicates a controller configuration that cannot
	// be bound to a solve.
	ErrInvalidConfig = errors.New("ode: invalid configuration")

	// ErrUnsupported indicates a configuration combination that is
	// rejected rather than silently mis-handled.
	ErrUnsupported = errors.New("ode: unsupported configuration")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")
)
