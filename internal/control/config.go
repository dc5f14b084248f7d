package control

import (
	"fmt"
	"sort"

	"github.com/kmoren/stepwise/internal/norm"
	"github.com/kmoren/stepwise/internal/ode"
)

// Config is the user-facing controller configuration. It is immutable:
// construct it once, then Bind it to a solve. A Config by itself cannot
// step; only the bound Controller can.
type Config struct {
	// RTol and ATol are the relative and absolute error tolerances.
	// RTolVec/ATolVec, when non-nil, override them per component and
	// must match the state dimension.
	RTol    float64
	ATol    float64
	RTolVec []float64
	ATolVec []float64

	// Safety shrinks the theoretically optimal step, IFactor and
	// DFactor bound the per-step growth and shrink multipliers.
	Safety  float64
	IFactor float64
	DFactor float64

	// Norm reduces a scaled error vector to one scalar. Nil means RMS.
	Norm norm.Func

	// DtMin and DtMax bound the step size. Zero means unset.
	DtMin float64
	DtMax float64

	// ForceDtMin silently floors steps to DtMin instead of reporting
	// DtMinReached.
	ForceDtMin bool

	// Lockstep advances multiple independent problem instances with a
	// shared step size and a shared accept/reject decision. Mutually
	// exclusive with StepTs and JumpTs.
	Lockstep bool

	// StepTs are times the integration must land on exactly; JumpTs are
	// times at which the vector field is discontinuous. Both ascending,
	// in external time.
	StepTs []float64
	JumpTs []float64

	// Detach, when set, is applied to the selected initial step size and
	// to the step-size factor. It exists so a caller embedding the
	// controller in a differentiable pipeline can cut dependency
	// tracking at exactly those two points. Nil means identity.
	Detach func(float64) float64
}

// DefaultConfig returns the standard controller settings. Tolerances
// follow scipy's solve_ivp defaults.
func DefaultConfig() Config {
	return Config{
		RTol:       1e-3,
		ATol:       1e-6,
		Safety:     0.9,
		IFactor:    10.0,
		DFactor:    0.2,
		Norm:       norm.RMS,
		ForceDtMin: true,
	}
}

// Controller is a Config bound to one solve: it additionally knows the
// integration direction and how to restructure flat vectors for the
// norm. All methods are pure; the per-step state lives in State values
// threaded by the caller.
type Controller struct {
	cfg       Config
	direction float64
	unravel   ode.Unravel

	// Grids in internal (direction-adjusted) time, ascending.
	stepTs []float64
	jumpTs []float64
}

// Bind attaches the configuration to a solve with the given integration
// direction (+1 or -1) and optional unravel function. The receiver is
// not modified. All misconfiguration is rejected here rather than
// surfacing mid-solve.
func (c Config) Bind(direction float64, unravel ode.Unravel) (*Controller, error) {
	if direction != 1 && direction != -1 {
		return nil, fmt.Errorf("%w: direction must be +1 or -1, got %v", ode.ErrInvalidConfig, direction)
	}
	if c.Safety <= 0 || c.Safety >= 1 {
		return nil, fmt.Errorf("%w: safety must be in (0, 1), got %v", ode.ErrInvalidConfig, c.Safety)
	}
	if c.IFactor <= 1 {
		return nil, fmt.Errorf("%w: ifactor must be > 1, got %v", ode.ErrInvalidConfig, c.IFactor)
	}
	if c.DFactor <= 0 || c.DFactor >= 1 {
		return nil, fmt.Errorf("%w: dfactor must be in (0, 1), got %v", ode.ErrInvalidConfig, c.DFactor)
	}
	if c.RTol < 0 || c.ATol < 0 {
		return nil, fmt.Errorf("%w: tolerances must be non-negative", ode.ErrInvalidConfig)
	}
	if c.DtMin > 0 && c.DtMax > 0 && c.DtMin > c.DtMax {
		return nil, fmt.Errorf("%w: dtmin %v exceeds dtmax %v", ode.ErrInvalidConfig, c.DtMin, c.DtMax)
	}
	if c.Lockstep && (len(c.StepTs) > 0 || len(c.JumpTs) > 0) {
		return nil, fmt.Errorf("%w: step/jump time grids cannot be combined with lockstep mode", ode.ErrUnsupported)
	}
	if err := checkAscending("step_ts", c.StepTs); err != nil {
		return nil, err
	}
	if err := checkAscending("jump_ts", c.JumpTs); err != nil {
		return nil, err
	}
	if c.Norm == nil {
		c.Norm = norm.RMS
	}
	if unravel == nil {
		unravel = func(flat []float64) ode.State { return flat }
	}
	return &Controller{
		cfg:       c,
		direction: direction,
		unravel:   unravel,
		stepTs:    rescaleGrid(c.StepTs, direction),
		jumpTs:    rescaleGrid(c.JumpTs, direction),
	}, nil
}

func checkAscending(name string, ts []float64) error {
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return fmt.Errorf("%w: %s must be strictly ascending", ode.ErrInvalidConfig, name)
		}
	}
	return nil
}

// rescaleGrid maps a grid into the internal timescale t*direction and
// restores ascending order for backward solves.
func rescaleGrid(ts []float64, direction float64) []float64 {
	if len(ts) == 0 {
		return nil
	}
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = t * direction
	}
	sort.Float64s(out)
	return out
}

// checkTolerances verifies per-component tolerance vectors against the
// state dimension. Called once per solve from Init.
func (c *Controller) checkTolerances(dim int) error {
	if c.cfg.RTolVec != nil && len(c.cfg.RTolVec) != dim {
		return fmt.Errorf("%w: rtol has %d components, state has %d", ode.ErrInvalidConfig, len(c.cfg.RTolVec), dim)
	}
	if c.cfg.ATolVec != nil && len(c.cfg.ATolVec) != dim {
		return fmt.Errorf("%w: atol has %d components, state has %d", ode.ErrInvalidConfig, len(c.cfg.ATolVec), dim)
	}
	return nil
}

func (c *Controller) rtolAt(i int) float64 {
	if c.cfg.RTolVec != nil {
		return c.cfg.RTolVec[i]
	}
	return c.cfg.RTol
}

func (c *Controller) atolAt(i int) float64 {
	if c.cfg.ATolVec != nil {
		return c.cfg.ATolVec[i]
	}
	return c.cfg.ATol
}

func (c *Controller) detach(x float64) float64 {
	if c.cfg.Detach != nil {
		return c.cfg.Detach(x)
	}
	return x
}
