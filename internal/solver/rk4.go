package solver

import "github.com/kmoren/stepwise/internal/ode"

// RK4 is the classic fourth-order Runge-Kutta method. It has no
// embedded error estimate, so it cannot drive adaptive step control.
type RK4 struct {
	k1, k2, k3, k4 ode.State
	scratch        ode.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Order() float64 { return 4 }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(ode.State, n)
		r.k2 = make(ode.State, n)
		r.k3 = make(ode.State, n)
		r.k4 = make(ode.State, n)
		r.scratch = make(ode.State, n)
	}
}

func (r *RK4) Step(sys ode.System, t0, t1 float64, y0 ode.State) (ode.State, ode.State, error) {
	n := len(y0)
	r.ensureScratch(n)
	dt := t1 - t0

	copy(r.k1, sys.Derive(t0, y0))

	for i := 0; i < n; i++ {
		r.scratch[i] = y0[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derive(t0+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = y0[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, sys.Derive(t0+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = y0[i] + dt*r.k3[i]
	}
	copy(r.k4, sys.Derive(t1, r.scratch))

	y1 := make(ode.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		y1[i] = y0[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return y1, nil, nil
}
