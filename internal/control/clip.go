package control

import (
	"math"
	"sort"
)

// searchAbove returns the index of the first grid time strictly greater
// than t. A grid time g lies strictly inside (t0, t1] exactly when
// searchAbove(ts, t0) < searchAbove(ts, t1).
func searchAbove(ts []float64, t float64) int {
	return sort.Search(len(ts), func(i int) bool { return ts[i] > t })
}

// clipStepTs clamps a proposed interval end so the integration never
// steps past a mandatory evaluation time.
func (c *Controller) clipStepTs(t0, t1 float64) float64 {
	if len(c.stepTs) == 0 {
		return t1
	}
	i0 := searchAbove(c.stepTs, t0)
	i1 := searchAbove(c.stepTs, t1)
	if i0 < i1 {
		return c.stepTs[i0]
	}
	return t1
}

// clipJumpTs clamps a proposed interval end to one ULP before the first
// discontinuity inside (t0, t1]. The returned flag tells the next call
// to resume just past the discontinuity, so the vector field is never
// evaluated at or across the non-smooth point.
func (c *Controller) clipJumpTs(t0, t1 float64) (float64, bool) {
	if len(c.jumpTs) == 0 {
		return t1, false
	}
	i0 := searchAbove(c.jumpTs, t0)
	i1 := searchAbove(c.jumpTs, t1)
	if i0 < i1 {
		return nextBefore(c.jumpTs[i0]), true
	}
	return t1, false
}

// nextAfter returns the closest float strictly greater than t.
func nextAfter(t float64) float64 { return math.Nextafter(t, math.Inf(1)) }

// nextBefore returns the closest float strictly less than t.
func nextBefore(t float64) float64 { return math.Nextafter(t, math.Inf(-1)) }
