// Package export renders solve results to image files.
package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kmoren/stepwise/internal/sim"
)

// TrajectoryPlot writes one state component over time.
func TrajectoryPlot(res *sim.Result, component int, path string) error {
	if len(res.States) == 0 {
		return fmt.Errorf("export: empty result")
	}
	if component < 0 || component >= len(res.States[0]) {
		return fmt.Errorf("export: component %d out of range", component)
	}

	pts := make(plotter.XYs, len(res.Times))
	for i := range res.Times {
		pts[i].X = res.Times[i]
		pts[i].Y = res.States[i][component]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("trajectory (component %d)", component)
	p.X.Label.Text = "t"
	p.Y.Label.Text = fmt.Sprintf("y[%d]", component)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// StepSizePlot writes the accepted step sizes over time, the most
// direct picture of what the controller did.
func StepSizePlot(res *sim.Result, path string) error {
	if len(res.Dts) == 0 {
		return fmt.Errorf("export: no accepted steps to plot")
	}

	pts := make(plotter.XYs, len(res.Dts))
	for i := range res.Dts {
		pts[i].X = res.Times[i+1]
		pts[i].Y = res.Dts[i]
	}

	p := plot.New()
	p.Title.Text = "accepted step sizes"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "dt"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
