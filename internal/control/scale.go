package control

import (
	"math"

	"github.com/kmoren/stepwise/internal/ode"
)

// scaleError normalizes a raw local-error vector by the tolerance scale
// derived from the two endpoint states and reduces it to one scalar.
// A value below 1 means the step met its local error target.
func (c *Controller) scaleError(yErr, y0, y1 ode.State) float64 {
	flat := make([]float64, len(yErr))
	for i := range yErr {
		scale := c.atolAt(i) + math.Max(y0[i], y1[i])*c.rtolAt(i)
		flat[i] = yErr[i] / scale
	}
	return c.cfg.Norm(c.unravel(flat))
}
