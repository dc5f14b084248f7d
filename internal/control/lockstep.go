package control

import (
	"fmt"
	"math"

	"github.com/kmoren/stepwise/internal/ode"
)

// Lockstep mode advances N independent problem instances with a shared
// step size and a shared accept/reject decision. It is the single-lane
// algorithm augmented with two reductions: acceptance is AND-reduced
// and the step size / factor is MIN-reduced across the batch before
// being applied uniformly. Bind rejects the combination of lockstep
// mode with either time grid.

// reduceAll is the acceptance reducer: all lanes accept or none do.
func reduceAll(xs []bool) bool {
	for _, x := range xs {
		if !x {
			return false
		}
	}
	return true
}

// reduceMin is the step-size reducer: the most cautious lane wins.
func reduceMin(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

// InitBatch is Init for lockstep mode. Each lane has its own system and
// initial state; all lanes share the returned interval.
func (c *Controller) InitBatch(sys []ode.System, stepper ode.Stepper, t0 float64, y0s []ode.State, dt0 float64) (float64, State, error) {
	if !c.cfg.Lockstep {
		return 0, State{}, fmt.Errorf("%w: InitBatch requires lockstep mode", ode.ErrInvalidConfig)
	}
	if len(sys) == 0 || len(sys) != len(y0s) {
		return 0, State{}, fmt.Errorf("%w: %d systems for %d initial states", ode.ErrInvalidConfig, len(sys), len(y0s))
	}
	if err := c.checkTolerances(len(y0s[0])); err != nil {
		return 0, State{}, err
	}
	if dt0 <= 0 {
		dts := make([]float64, len(sys))
		for i := range sys {
			dts[i] = c.selectInitialStep(sys[i], stepper.Order(), t0, y0s[i])
		}
		dt0 = c.detach(reduceMin(dts))
	}
	dt0, atDtMin, _ := c.clampStep(dt0)
	return t0 + dt0, State{AtDtMin: atDtMin}, nil
}

// AdaptStepSizeBatch is AdaptStepSize for lockstep mode: per-lane
// scaled errors and factors feed the two reducers, and the shared
// decision is returned once for the whole batch.
func (c *Controller) AdaptStepSizeBatch(t0, t1 float64, y0s, y1s, yErrs []ode.State, order float64, st State) (Decision, error) {
	if !c.cfg.Lockstep {
		return Decision{}, fmt.Errorf("%w: AdaptStepSizeBatch requires lockstep mode", ode.ErrInvalidConfig)
	}
	if len(yErrs) != len(y0s) || len(y1s) != len(y0s) {
		return Decision{}, fmt.Errorf("%w: batch length mismatch", ode.ErrInvalidConfig)
	}

	scaledErrs := make([]float64, len(y0s))
	keeps := make([]bool, len(y0s))
	for i := range y0s {
		if yErrs[i] == nil {
			return Decision{}, ode.ErrNoErrorEstimate
		}
		scaledErrs[i] = c.scaleError(yErrs[i], y0s[i], y1s[i])
		keeps[i] = scaledErrs[i] < 1
		if c.cfg.DtMin > 0 && st.AtDtMin {
			keeps[i] = true
		}
	}
	keep := reduceAll(keeps)

	// Each lane computes its factor against the shared decision, then
	// the most cautious lane's factor applies to everyone.
	factors := make([]float64, len(y0s))
	for i := range scaledErrs {
		factors[i] = c.scaleFactor(order, keep, scaledErrs[i])
	}
	factor := c.detach(reduceMin(factors))
	dt := (t1 - t0) * factor

	return c.nextInterval(t0, t1, dt, keep, st), nil
}
