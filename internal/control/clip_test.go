package control

import (
	"math"
	"testing"

	"github.com/kmoren/stepwise/internal/ode"
)

func TestClipStepTs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepTs = []float64{1.0, 2.0, 5.0}
	c := mustBind(t, cfg)

	tests := []struct {
		name   string
		t0, t1 float64
		want   float64
	}{
		{"crosses first grid time", 0.5, 3.0, 1.0},
		{"starts on grid, crosses next", 1.0, 2.5, 2.0},
		{"lands exactly on grid", 1.0, 2.0, 2.0},
		{"no grid time inside", 2.0, 4.0, 4.0},
		{"past the whole grid", 6.0, 9.0, 9.0},
		{"before the whole grid", 0.1, 0.9, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.clipStepTs(tt.t0, tt.t1); got != tt.want {
				t.Errorf("clipStepTs(%v, %v) = %v, want %v", tt.t0, tt.t1, got, tt.want)
			}
		})
	}
}

func TestClipStepTsBackward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepTs = []float64{1.0, 2.0}
	c, err := cfg.Bind(-1, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Internal grid is [-2, -1]; an interval from -2.5 must stop at -2.
	if got := c.clipStepTs(-2.5, -0.5); got != -2.0 {
		t.Errorf("backward clip = %v, want -2", got)
	}
}

func TestClipJumpTs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JumpTs = []float64{3.0}
	c := mustBind(t, cfg)

	t1, jumped := c.clipJumpTs(2.5, 3.5)
	if !jumped {
		t.Fatal("jump flag not raised for interval crossing 3.0")
	}
	if t1 >= 3.0 {
		t.Errorf("clamped t1 = %v, want < 3.0", t1)
	}
	if t1 != math.Nextafter(3.0, math.Inf(-1)) {
		t.Errorf("clamped t1 = %v, want largest float below 3.0", t1)
	}

	t1, jumped = c.clipJumpTs(0.0, 2.0)
	if jumped || t1 != 2.0 {
		t.Errorf("interval short of the jump: got (%v, %v)", t1, jumped)
	}
}

// After a jump clip, the accepted step resumes strictly past the
// discontinuity so the vector field never sees the non-smooth point.
func TestJumpResumesPastDiscontinuity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JumpTs = []float64{3.0}
	c := mustBind(t, cfg)

	t0 := 2.5
	t1, jumped := c.clipJumpTs(t0, 3.5)
	if !jumped {
		t.Fatal("expected jump clip")
	}

	dec, err := c.AdaptStepSize(t0, t1, ode.State{1}, ode.State{1}, ode.State{1e-9}, 5, State{MadeJump: jumped})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.KeepStep {
		t.Fatal("step was rejected")
	}
	if !dec.MadeJump {
		t.Error("decision does not report the jump of the evaluated interval")
	}
	want := math.Nextafter(3.0, math.Inf(1))
	if dec.NextT0 != want {
		t.Errorf("next t0 = %v, want smallest float above 3.0 (%v)", dec.NextT0, want)
	}
	if dec.NextT0 <= 3.0 {
		t.Errorf("next t0 = %v does not clear the discontinuity", dec.NextT0)
	}
}

func TestInitClipsGrids(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepTs = []float64{0.5}
	c := mustBind(t, cfg)

	t1, _, err := c.Init(decay{lambda: 1}, stubStepper{order: 5}, 0, ode.State{1}, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != 0.5 {
		t.Errorf("init t1 = %v, want clamped to 0.5", t1)
	}

	cfg = DefaultConfig()
	cfg.JumpTs = []float64{0.5}
	c = mustBind(t, cfg)
	t1, st, err := c.Init(decay{lambda: 1}, stubStepper{order: 5}, 0, ode.State{1}, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if t1 >= 0.5 {
		t.Errorf("init t1 = %v, want below the jump at 0.5", t1)
	}
	if !st.MadeJump {
		t.Error("init did not flag the clipped jump")
	}
}

// A step landing exactly on a mandatory time is never pushed beyond the
// following one, across a whole accept sequence.
func TestStepGridSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepTs = []float64{1.0, 2.0, 5.0}
	c := mustBind(t, cfg)

	t0, t1 := 0.5, c.clipStepTs(0.5, 3.0)
	if t1 != 1.0 {
		t.Fatalf("first clamp: got %v, want 1.0", t1)
	}
	dec, err := c.AdaptStepSize(t0, t1, ode.State{1}, ode.State{1}, ode.State{0}, 5, State{})
	if err != nil {
		t.Fatal(err)
	}
	if dec.NextT0 != 1.0 {
		t.Fatalf("next interval starts at %v, want 1.0", dec.NextT0)
	}
	if dec.NextT1 > 2.0 {
		t.Errorf("next interval end %v passed the scheduled time 2.0", dec.NextT1)
	}
}
