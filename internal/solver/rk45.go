// Package solver provides one-step integration methods for use with
// adaptive step-size control.
package solver

import "github.com/kmoren/stepwise/internal/ode"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince 5(4) pair. The fifth-order solution is
// propagated; the difference against the embedded fourth-order solution
// is returned as the local error estimate.
type RK45 struct{}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Order() float64 { return 5 }

func (r *RK45) Step(sys ode.System, t0, t1 float64, y0 ode.State) (ode.State, ode.State, error) {
	n := len(y0)
	dt := t1 - t0

	k1 := sys.Derive(t0, y0)

	x2 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x2[i] = y0[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(t0+a2*dt, x2)

	x3 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x3[i] = y0[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t0+a3*dt, x3)

	x4 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x4[i] = y0[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t0+a4*dt, x4)

	x5 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x5[i] = y0[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t0+a5*dt, x5)

	x6 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x6[i] = y0[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t1, x6)

	y1 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y1[i] = y0[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	// FSAL stage, only needed for the error estimate here.
	k7 := sys.Derive(t1, y1)

	yErr := make(ode.State, n)
	for i := 0; i < n; i++ {
		yErr[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	return y1, yErr, nil
}
