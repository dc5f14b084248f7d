package ode

import "math"

// State is a flat vector of system variables.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether the state contains neither NaN nor Inf.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an autonomous or time-dependent ODE dy/dt = f(t, y).
// Problem parameters live on the implementing struct.
type System interface {
	Derive(t float64, y State) State
	Dim() int
}

// Stepper advances the solution over one trial interval [t0, t1].
//
// yErr is the method's embedded local error estimate. Methods without an
// embedded estimate return a nil yErr; such methods cannot be combined
// with adaptive step-size control.
type Stepper interface {
	Order() float64
	Step(sys System, t0, t1 float64, y0 State) (y1, yErr State, err error)
}

// Unravel converts a flat vector back into the caller's structured state
// before norm reduction. A nil Unravel means the state is already flat.
type Unravel func(flat []float64) State

// Result is the status a controller call reports to the solve loop.
type Result int

const (
	Successful Result = iota
	DtMinReached
	MaxStepsReached
)

func (r Result) String() string {
	switch r {
	case Successful:
		return "successful"
	case DtMinReached:
		return "dt_min_reached"
	case MaxStepsReached:
		return "max_steps_reached"
	default:
		return "unknown"
	}
}
