package solver

import "github.com/kmoren/stepwise/internal/ode"

// Euler is the explicit Euler method. No error estimate.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Order() float64 { return 1 }

func (e *Euler) Step(sys ode.System, t0, t1 float64, y0 ode.State) (ode.State, ode.State, error) {
	dt := t1 - t0
	dy := sys.Derive(t0, y0)
	y1 := make(ode.State, len(y0))
	for i := range y0 {
		y1[i] = y0[i] + dt*dy[i]
	}
	return y1, nil, nil
}
