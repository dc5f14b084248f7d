// Package sim drives an adaptive integration from t0 to tEnd: it binds
// the controller, runs the stepping method on each trial interval, and
// acts on the controller's accept/reject decisions and result codes.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/kmoren/stepwise/internal/control"
	"github.com/kmoren/stepwise/internal/ode"
)

const defaultMaxSteps = 100000

// Options tune the solve loop itself; everything about step-size
// selection lives in the controller config.
type Options struct {
	// DT0 is the first trial step size. Zero or negative lets the
	// controller pick one.
	DT0 float64

	// MaxSteps caps the number of trial steps (accepted plus rejected).
	// Zero means the default cap.
	MaxSteps uint

	// ValidateState aborts with ErrInvalidState when a step produces
	// NaN or Inf.
	ValidateState bool
}

// Result collects the accepted trajectory and loop statistics.
type Result struct {
	Times  []float64
	States []ode.State
	Dts    []float64

	Accepted uint
	Rejected uint

	Outcome ode.Result
}

// Session is an in-flight adaptive solve, advanced one trial step at a
// time. Run wraps it; the live view drives it tick by tick.
type Session struct {
	sys     ode.System
	stepper ode.Stepper
	ctrl    *control.Controller

	direction float64
	sEnd      float64

	t0, t1 float64
	y      ode.State
	st     control.State

	opts Options
	res  *Result
	done bool
}

// NewSession binds the controller configuration to the solve direction
// and produces the first trial interval.
func NewSession(sys ode.System, stepper ode.Stepper, cfg control.Config, t0, tEnd float64, y0 ode.State, opts Options) (*Session, error) {
	if t0 == tEnd {
		return nil, fmt.Errorf("%w: empty integration interval t0 == tEnd == %v", ode.ErrInvalidConfig, t0)
	}
	direction := 1.0
	if tEnd < t0 {
		direction = -1.0
	}
	ctrl, err := cfg.Bind(direction, nil)
	if err != nil {
		return nil, err
	}

	isys := sys
	if direction < 0 {
		isys = reversed{inner: sys}
	}

	s0 := direction * t0
	t1, st, err := ctrl.Init(isys, stepper, s0, y0, opts.DT0)
	if err != nil {
		return nil, err
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = defaultMaxSteps
	}

	res := &Result{
		Times:   []float64{t0},
		States:  []ode.State{y0.Clone()},
		Outcome: ode.Successful,
	}
	return &Session{
		sys:       sys,
		stepper:   stepper,
		ctrl:      ctrl,
		direction: direction,
		sEnd:      direction * tEnd,
		t0:        s0,
		t1:        t1,
		y:         y0.Clone(),
		st:        st,
		opts:      opts,
		res:       res,
	}, nil
}

// Step performs one trial step: run the method, ask the controller, and
// move to the next interval. It reports whether the solve has finished.
func (s *Session) Step() (bool, error) {
	if s.done {
		return true, nil
	}
	if s.res.Accepted+s.res.Rejected >= s.opts.MaxSteps {
		s.res.Outcome = ode.MaxStepsReached
		s.done = true
		return true, nil
	}

	isys := s.internalSystem()
	t1 := math.Min(s.t1, s.sEnd)

	y1, yErr, err := s.stepper.Step(isys, s.t0, t1, s.y)
	if err != nil {
		return true, fmt.Errorf("step at t=%v: %w", s.externalTime(s.t0), err)
	}
	if s.opts.ValidateState && !y1.IsValid() {
		return true, fmt.Errorf("step at t=%v: %w", s.externalTime(s.t0), ode.ErrInvalidState)
	}

	dec, err := s.ctrl.AdaptStepSize(s.t0, t1, s.y, y1, yErr, s.stepper.Order(), s.st)
	if err != nil {
		return true, err
	}

	if dec.KeepStep {
		s.y = y1
		s.res.Accepted++
		s.res.Times = append(s.res.Times, s.externalTime(t1))
		s.res.States = append(s.res.States, y1.Clone())
		s.res.Dts = append(s.res.Dts, t1-s.t0)
	} else {
		s.res.Rejected++
	}
	s.st = dec.State
	s.t0 = dec.NextT0
	s.t1 = dec.NextT1

	if dec.Result == ode.DtMinReached {
		s.res.Outcome = ode.DtMinReached
		s.done = true
	} else if dec.KeepStep && t1 >= s.sEnd {
		s.done = true
	}
	return s.done, nil
}

// Result returns the trajectory accumulated so far.
func (s *Session) Result() *Result { return s.res }

// Time returns the current external integration time.
func (s *Session) Time() float64 { return s.externalTime(s.t0) }

// State returns the current state vector.
func (s *Session) State() ode.State { return s.y }

func (s *Session) internalSystem() ode.System {
	if s.direction < 0 {
		return reversed{inner: s.sys}
	}
	return s.sys
}

func (s *Session) externalTime(internal float64) float64 {
	return internal * s.direction
}

// Run integrates sys from t0 to tEnd with adaptive step control.
// tEnd < t0 solves backward.
func Run(ctx context.Context, sys ode.System, stepper ode.Stepper, cfg control.Config, t0, tEnd float64, y0 ode.State, opts Options) (*Result, error) {
	sess, err := NewSession(sys, stepper, cfg, t0, tEnd, y0, opts)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return sess.Result(), ctx.Err()
		default:
		}
		done, err := sess.Step()
		if err != nil {
			return sess.Result(), err
		}
		if done {
			return sess.Result(), nil
		}
	}
}

// reversed maps a backward solve onto the controller's increasing
// internal timescale s = -t: dy/ds = -f(-s, y).
type reversed struct {
	inner ode.System
}

func (r reversed) Dim() int { return r.inner.Dim() }

func (r reversed) Derive(s float64, y ode.State) ode.State {
	d := r.inner.Derive(-s, y)
	out := make(ode.State, len(d))
	for i := range d {
		out[i] = -d[i]
	}
	return out
}
