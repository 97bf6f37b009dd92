package solar

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SunlitChart plots the sunlit fraction of a window over the hours of
// the representative day of each month. Night is black and hours with
// the sun behind the window's wall are dark gray.
func SunlitChart(window string, points []SamplePoint) *plot.Plot {
	plt := newPlot()
	plt.Title.Text = fmt.Sprintf("Sunlit fraction of %s", window)

	grid := &sunlitGrid{}
	for c := range grid.z {
		for r := range grid.z[c] {
			grid.z[c][r] = math.NaN()
		}
	}
	for _, p := range points {
		c, r := int(p.Day.Month)-1, p.Hour
		if c < 0 || c >= len(grid.z) || r < 0 || r >= len(grid.z[c]) {
			continue
		}
		switch {
		case p.Behind:
			grid.z[c][r] = -1
		case p.Skipped:
			// Leave as night.
		default:
			grid.z[c][r] = p.Sunlit
		}
	}

	pal := palette.Heat(256, 1)
	hm := plotter.NewHeatMap(grid, pal)
	hm.Min, hm.Max = 0, 1
	hm.Underflow = color.Gray{Y: 0x40}
	hm.NaN = color.Black
	hm.Rasterized = true
	plt.Add(hm)
	return plt
}

// WriteChart renders plt as a PNG.
func WriteChart(w io.Writer, plt *plot.Plot) error {
	wt, err := plt.WriterTo(20*vg.Centimeter, 15*vg.Centimeter, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func newPlot() *plot.Plot {
	plt := plot.New()
	plt.X.Tick.Marker = monthTicks{}
	plt.Y.Tick.Marker = timeOfDayTicks{targetTicks: 8}
	plt.X.Label.Text = "Month"
	plt.Y.Label.Text = "Solar hour"
	plt.BackgroundColor = color.Black
	for _, elt := range []*color.Color{
		&plt.Title.TextStyle.Color,
		&plt.X.Color,
		&plt.X.Tick.Color,
		&plt.X.Tick.Label.Color,
		&plt.X.Label.TextStyle.Color,
		&plt.Y.Color,
		&plt.Y.Tick.Color,
		&plt.Y.Tick.Label.Color,
		&plt.Y.Label.TextStyle.Color,
	} {
		*elt = color.White
	}
	return plt
}

// sunlitGrid is a month × hour grid. X values are month numbers and Y
// values are hours since midnight.
type sunlitGrid struct {
	z [12][24]float64
}

func (g *sunlitGrid) Dims() (c, r int) { return len(g.z), len(g.z[0]) }

func (g *sunlitGrid) Z(c, r int) float64 { return g.z[c][r] }

func (g *sunlitGrid) X(c int) float64 { return float64(c + 1) }

// Y returns the middle of hour r, where the sample is taken.
func (g *sunlitGrid) Y(r int) float64 { return float64(r) + 0.5 }

// timeOfDayTicks renders hours since midnight as a time of day.
type timeOfDayTicks struct {
	targetTicks int // Create around targetTicks number of ticks
}

func (o timeOfDayTicks) Ticks(min, max float64) []plot.Tick {
	minD, maxD := time.Duration(min*float64(time.Hour)), time.Duration(max*float64(time.Hour))

	// Find a good duration between ticks
	best, minor := optimizeDurationTicks(minD, maxD, o.targetTicks)

	// Generate ticks and labels.
	var ticks []plot.Tick
	first := int((minD + minor - 1) / minor)
	last := int(maxD / minor)
	minorFactor := int(best / minor)
	var dayBase = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := first; i <= last; i++ {
		t := time.Duration(i) * minor
		label := ""
		if i%minorFactor == 0 {
			label = dayBase.Add(t).Format("15:04")
		}
		ticks = append(ticks, plot.Tick{
			Value: t.Hours(),
			Label: label,
		})
	}
	return ticks
}

var durationScales = []time.Duration{12 * time.Hour, 6 * time.Hour, 3 * time.Hour, time.Hour, 30 * time.Minute}

func optimizeDurationTicks(minD, maxD time.Duration, targetTicks int) (best, minor time.Duration) {
	// Compute how many ticks would appear in [minD, maxD] for each
	// scale and pick the closest to targetTicks.
	bestNDelta := 0
	for i, scale := range durationScales[:len(durationScales)-1] {
		first := int((minD + scale - 1) / scale)
		last := int(maxD / scale)
		if n := last - first + 1; n > 0 {
			delta := n - targetTicks
			if delta < 0 {
				delta = -delta
			}
			if best == 0 || delta < bestNDelta {
				best, bestNDelta = scale, delta
				minor = durationScales[i+1]
			}
		}
	}
	if best == 0 {
		best, minor = durationScales[0], durationScales[1]
	}
	return best, minor
}

// monthTicks labels the months at the centers of the grid columns.
type monthTicks struct{}

func (monthTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for m := time.January; m <= time.December; m++ {
		v := float64(m)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: m.String()[:3]})
	}
	return ticks
}
