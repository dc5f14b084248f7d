// Package control implements adaptive step-size control for ODE
// integration: accept/reject decisions on trial steps and the size of
// the next trial interval, subject to tolerance targets, hard step
// bounds, and mandatory or discontinuity time grids.
package control

import (
	"fmt"
	"math"

	"github.com/kmoren/stepwise/internal/ode"
)

// State is the controller state threaded between calls. Every call
// returns a fresh value; nothing is mutated in place.
//
// MadeJump records that the previous accepted boundary was clamped to
// just before a discontinuity, so the next interval must start just past
// it. AtDtMin records that the last computed step was floored to DtMin,
// so the next accept decision must not reject a step that cannot shrink
// further.
type State struct {
	MadeJump bool
	AtDtMin  bool
}

// Decision is the outcome of one AdaptStepSize call.
type Decision struct {
	// KeepStep reports whether the trial step met its local error
	// target and should be kept.
	KeepStep bool

	// NextT0 and NextT1 bound the next trial interval. A rejected step
	// retries from the same origin with the shrunk step.
	NextT0 float64
	NextT1 float64

	// MadeJump is the incoming jump flag, describing the interval just
	// evaluated. The flag for the next interval is in State.
	MadeJump bool

	// State is threaded, unmodified, into the next controller call.
	State State

	// Result is Successful, or DtMinReached when the step size fell
	// below DtMin and ForceDtMin is off.
	Result ode.Result
}

// Init produces the first trial interval and the initial controller
// state. dt0 <= 0 means no initial step size was supplied and the
// Hairer-Norsett-Wanner heuristic picks one.
func (c *Controller) Init(sys ode.System, stepper ode.Stepper, t0 float64, y0 ode.State, dt0 float64) (float64, State, error) {
	if c.cfg.Lockstep {
		return 0, State{}, fmt.Errorf("%w: use InitBatch in lockstep mode", ode.ErrInvalidConfig)
	}
	if err := c.checkTolerances(len(y0)); err != nil {
		return 0, State{}, err
	}
	if dt0 <= 0 {
		dt0 = c.detach(c.selectInitialStep(sys, stepper.Order(), t0, y0))
	}
	dt0, atDtMin, _ := c.clampStep(dt0)

	t1 := c.clipStepTs(t0, t0+dt0)
	t1, jumpNextStep := c.clipJumpTs(t0, t1)
	return t1, State{MadeJump: jumpNextStep, AtDtMin: atDtMin}, nil
}

// AdaptStepSize decides whether to keep the trial step (t0, t1) given
// the local error estimate yErr it produced, and computes the next trial
// interval. order is the convergence order of the stepping method.
func (c *Controller) AdaptStepSize(t0, t1 float64, y0, y1 ode.State, yErr ode.State, order float64, st State) (Decision, error) {
	if c.cfg.Lockstep {
		return Decision{}, fmt.Errorf("%w: use AdaptStepSizeBatch in lockstep mode", ode.ErrInvalidConfig)
	}
	if yErr == nil {
		return Decision{}, ode.ErrNoErrorEstimate
	}

	scaledErr := c.scaleError(yErr, y0, y1)
	keep := scaledErr < 1
	if c.cfg.DtMin > 0 && st.AtDtMin {
		// A step at the floor size cannot shrink further; rejecting it
		// would loop forever.
		keep = true
	}

	factor := c.detach(c.scaleFactor(order, keep, scaledErr))
	dt := (t1 - t0) * factor

	return c.nextInterval(t0, t1, dt, keep, st), nil
}

// scaleFactor computes the step-size multiplier. Zero scaled error
// short-circuits to IFactor so the division is never taken. On an
// accepted step the factor never drops below 1.
func (c *Controller) scaleFactor(order float64, keep bool, scaledErr float64) float64 {
	if scaledErr == 0 {
		return c.cfg.IFactor
	}
	low := c.cfg.DFactor
	if keep {
		low = 1
	}
	f := c.cfg.Safety / math.Pow(scaledErr, 1/order)
	return math.Min(math.Max(f, low), c.cfg.IFactor)
}

// clampStep applies the DtMax/DtMin bounds to a raw step size. When
// ForceDtMin is off, a step below DtMin reports DtMinReached; either
// way the step is floored and the at-dtmin flag raised.
func (c *Controller) clampStep(dt float64) (float64, bool, ode.Result) {
	result := ode.Successful
	if c.cfg.DtMax > 0 {
		dt = math.Min(dt, c.cfg.DtMax)
	}
	atDtMin := false
	if c.cfg.DtMin > 0 {
		if !c.cfg.ForceDtMin && dt < c.cfg.DtMin {
			result = ode.DtMinReached
		}
		atDtMin = dt <= c.cfg.DtMin
		dt = math.Max(dt, c.cfg.DtMin)
	}
	return dt, atDtMin, result
}

// nextInterval clamps the new step size, positions the next trial
// interval and clips it against both time grids. Shared by the scalar
// and lockstep paths.
func (c *Controller) nextInterval(t0, t1, dt float64, keep bool, st State) Decision {
	dt, atDtMin, result := c.clampStep(dt)

	start := t1
	if st.MadeJump {
		// t1 sits one ULP before a discontinuity; resume one ULP past
		// it so the vector field is never evaluated at the jump.
		start = nextAfter(nextAfter(t1))
	}
	nextT0 := start
	if !keep {
		nextT0 = t0
	}
	nextT1 := c.clipStepTs(nextT0, nextT0+dt)
	nextT1, jumpNextStep := c.clipJumpTs(nextT0, nextT1)

	return Decision{
		KeepStep: keep,
		NextT0:   nextT0,
		NextT1:   nextT1,
		MadeJump: st.MadeJump,
		State:    State{MadeJump: jumpNextStep, AtDtMin: atDtMin},
		Result:   result,
	}
}
