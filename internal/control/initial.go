package control

import (
	"math"

	"github.com/kmoren/stepwise/internal/ode"
)

// selectInitialStep implements the empirical starting-step heuristic
// from Hairer, Norsett & Wanner, "Solving Ordinary Differential
// Equations I: Nonstiff Problems", Sec. II.4, 2nd edition.
func (c *Controller) selectInitialStep(sys ode.System, order, t0 float64, y0 ode.State) float64 {
	n := len(y0)
	f0 := sys.Derive(t0, y0)

	scale := make([]float64, n)
	for i := range scale {
		scale[i] = c.atolAt(i) + math.Abs(y0[i])*c.rtolAt(i)
	}
	d0 := c.scaledNorm(y0, scale)
	d1 := c.scaledNorm(f0, scale)

	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}

	// Explicit Euler trial step to probe the second derivative.
	y1 := make(ode.State, n)
	for i := range y1 {
		y1[i] = y0[i] + h0*f0[i]
	}
	f1 := sys.Derive(t0+h0, y1)

	diff := make(ode.State, n)
	for i := range diff {
		diff[i] = f1[i] - f0[i]
	}
	d2 := c.scaledNorm(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 || d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01*math.Max(d1, d2), 1/order)
	}

	return math.Min(100*h0, h1)
}

// scaledNorm reduces x/scale through the configured norm.
func (c *Controller) scaledNorm(x ode.State, scale []float64) float64 {
	flat := make([]float64, len(x))
	for i := range x {
		flat[i] = x[i] / scale[i]
	}
	return c.cfg.Norm(c.unravel(flat))
}
