package control

import (
	"errors"
	"math"
	"testing"

	"github.com/kmoren/stepwise/internal/ode"
)

type decay struct {
	lambda float64
}

func (d decay) Derive(t float64, y ode.State) ode.State {
	return ode.State{-d.lambda * y[0]}
}

func (d decay) Dim() int { return 1 }

type stubStepper struct {
	order float64
}

func (s stubStepper) Order() float64 { return s.order }

func (s stubStepper) Step(sys ode.System, t0, t1 float64, y0 ode.State) (ode.State, ode.State, error) {
	return y0.Clone(), make(ode.State, len(y0)), nil
}

func mustBind(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := cfg.Bind(1, nil)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	return c
}

func TestAdaptRequiresErrorEstimate(t *testing.T) {
	c := mustBind(t, DefaultConfig())
	_, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, nil, 5, State{})
	if !errors.Is(err, ode.ErrNoErrorEstimate) {
		t.Fatalf("expected ErrNoErrorEstimate, got %v", err)
	}
}

func TestZeroErrorGrowsByIFactor(t *testing.T) {
	c := mustBind(t, DefaultConfig())

	if f := c.scaleFactor(5, true, 0); f != c.cfg.IFactor {
		t.Errorf("zero scaled error: factor = %v, want exactly %v", f, c.cfg.IFactor)
	}

	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{0}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.KeepStep {
		t.Error("zero-error step was rejected")
	}
	dt := dec.NextT1 - dec.NextT0
	if math.Abs(dt-0.1*c.cfg.IFactor) > 1e-12 {
		t.Errorf("next dt = %v, want %v", dt, 0.1*c.cfg.IFactor)
	}
}

func TestRejectLargeError(t *testing.T) {
	cfg := DefaultConfig()
	c := mustBind(t, cfg)

	// scale = atol + y*rtol ~ 1e-3, so an error of 1 is far beyond target.
	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{1}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if dec.KeepStep {
		t.Fatal("step exceeding tolerance was kept")
	}
	if dec.NextT0 != 0 {
		t.Errorf("rejected step must retry from t0: next t0 = %v", dec.NextT0)
	}
	dt := dec.NextT1 - dec.NextT0
	if dt > 0.1 {
		t.Errorf("rejected step grew: dt %v > 0.1", dt)
	}
	if dt < cfg.DFactor*0.1-1e-15 {
		t.Errorf("shrink below dfactor bound: dt = %v", dt)
	}
}

func TestAcceptNeverShrinks(t *testing.T) {
	c := mustBind(t, DefaultConfig())

	// scaled error just under 1: kept, and the factor is clamped at 1
	// from below even though safety/err^(1/5) < 1.
	yErr := ode.State{0.99 * (1e-6 + 1e-3)}
	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, yErr, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.KeepStep {
		t.Fatal("step within tolerance was rejected")
	}
	if dec.NextT0 != 0.1 {
		t.Errorf("accepted step must advance: next t0 = %v", dec.NextT0)
	}
	if dt := dec.NextT1 - dec.NextT0; dt < 0.1-1e-15 {
		t.Errorf("accepted step shrank: dt = %v", dt)
	}
}

func TestDtMinForceAccept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DtMin = 0.5
	c := mustBind(t, cfg)

	// Large error on a small step: unfloored dt = 0.1*dfactor << dtmin.
	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{1}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if dt := dec.NextT1 - dec.NextT0; dt != cfg.DtMin {
		t.Errorf("dt = %v, want floored to %v", dt, cfg.DtMin)
	}
	if dec.Result != ode.Successful {
		t.Errorf("result = %v, want successful with force_dtmin", dec.Result)
	}
	if !dec.State.AtDtMin {
		t.Error("at_dtmin flag not raised")
	}

	// The follow-up step at the floor size must be accepted even though
	// its error still exceeds tolerance.
	dec2, err := c.AdaptStepSize(dec.NextT0, dec.NextT1, ode.State{1}, ode.State{1}, ode.State{1}, 5, dec.State)
	if err != nil {
		t.Fatal(err)
	}
	if !dec2.KeepStep {
		t.Error("step at dtmin was rejected")
	}
}

func TestDtMinReached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DtMin = 0.5
	cfg.ForceDtMin = false
	c := mustBind(t, cfg)

	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{1}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if dt := dec.NextT1 - dec.NextT0; dt != cfg.DtMin {
		t.Errorf("dt = %v, want floored to %v", dt, cfg.DtMin)
	}
	if dec.Result != ode.DtMinReached {
		t.Errorf("result = %v, want dt_min_reached", dec.Result)
	}
}

func TestDtMaxClip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DtMax = 0.25
	c := mustBind(t, cfg)

	dec, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{0}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if dt := dec.NextT1 - dec.NextT0; dt != cfg.DtMax {
		t.Errorf("dt = %v, want clipped to %v", dt, cfg.DtMax)
	}
}

func TestDeterminism(t *testing.T) {
	c := mustBind(t, DefaultConfig())

	y0 := ode.State{1.3, -0.7}
	y1 := ode.State{1.29, -0.69}
	yErr := ode.State{3e-4, -2e-4}

	a, err := c.AdaptStepSize(0.2, 0.35, y0, y1, yErr, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.AdaptStepSize(0.2, 0.35, y0, y1, yErr, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("identical inputs produced different decisions:\n%+v\n%+v", a, b)
	}
}

func TestDetachHookSites(t *testing.T) {
	calls := 0
	cfg := DefaultConfig()
	cfg.Detach = func(x float64) float64 {
		calls++
		return x
	}
	c := mustBind(t, cfg)

	sys := decay{lambda: 1}
	if _, _, err := c.Init(sys, stubStepper{order: 5}, 0, ode.State{1}, 0); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("detach called %d times in Init, want 1", calls)
	}
	if _, err := c.AdaptStepSize(0, 0.1, ode.State{1}, ode.State{1}, ode.State{1e-8}, 5, State{}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("detach called %d times after adapt, want 2", calls)
	}
}

func TestInitExplicitDt(t *testing.T) {
	c := mustBind(t, DefaultConfig())
	t1, st, err := c.Init(decay{lambda: 1}, stubStepper{order: 5}, 2, ode.State{1}, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != 2.25 {
		t.Errorf("t1 = %v, want 2.25", t1)
	}
	if st.MadeJump || st.AtDtMin {
		t.Errorf("fresh state has flags set: %+v", st)
	}
}

func TestInitDtMinFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DtMin = 0.1
	c := mustBind(t, cfg)
	t1, st, err := c.Init(decay{lambda: 1}, stubStepper{order: 5}, 0, ode.State{1}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != 0.1 {
		t.Errorf("t1 = %v, want floored to 0.1", t1)
	}
	if !st.AtDtMin {
		t.Error("at_dtmin flag not raised by init")
	}
}
