// Package ode provides the core types for adaptive ODE integration.
//
// The package defines the contracts shared by the step-size controller,
// the one-step methods and the outer solve loop:
//
//   - [State]: flat vector representing system state
//   - [System]: interface for ODE systems (dy/dt = f(t, y))
//   - [Stepper]: one-step integration method, optionally with an
//     embedded local error estimate
//   - [Result]: status codes handed back to the solve loop
//
// # Thread Safety
//
// All types are value-like and safe to share after construction. Stepper
// implementations may carry scratch buffers and are NOT safe for
// concurrent use of a single instance.
package ode
