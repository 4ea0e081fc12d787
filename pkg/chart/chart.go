// Package chart renders per-bucket usage trend charts: one PNG with two
// stacked line panels (usage and object count) over a shared daily date
// axis.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DateFormat is the layout of the x-axis tick labels and of the incoming
// date strings.
const DateFormat = "2006-01-02"

// Render draws the usage and object-count series for a bucket and writes
// the result to outPath. The x-axis spans windowStart..windowEnd with one
// tick per day. Rendering never touches the ledger and is deterministic
// for identical inputs.
func Render(bucket string, dates []string, usages []float64, counts []int64, windowStart, windowEnd time.Time, outPath string) error {
	countVals := make([]float64, len(counts))
	for i, c := range counts {
		countVals[i] = float64(c)
	}

	usageXYs, err := seriesXYs(dates, usages)
	if err != nil {
		return fmt.Errorf("usage series for bucket %s: %w", bucket, err)
	}
	countXYs, err := seriesXYs(dates, countVals)
	if err != nil {
		return fmt.Errorf("object series for bucket %s: %w", bucket, err)
	}

	// The values are binary GiB (size_kb/1024/1024) but the axis keeps
	// its historical "GB" label.
	top, err := newPanel(bucket, "Usage (GB)", usageXYs, nil, windowStart, windowEnd)
	if err != nil {
		return err
	}
	bottom, err := newPanel("", "Objects", countXYs, color.RGBA{R: 255, A: 255}, windowStart, windowEnd)
	if err != nil {
		return err
	}

	img := vgimg.New(9*vg.Inch, 7*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 3}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("writing chart for bucket %s: %w", bucket, err)
	}
	return nil
}

// seriesXYs pairs date strings with values. Dates must be YYYY-MM-DD.
func seriesXYs(dates []string, values []float64) (plotter.XYs, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("series length mismatch: %d dates, %d values", len(dates), len(values))
	}
	xys := make(plotter.XYs, len(dates))
	for i, d := range dates {
		t, err := time.Parse(DateFormat, d)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", d, err)
		}
		xys[i].X = float64(t.Unix())
		xys[i].Y = values[i]
	}
	return xys, nil
}

func newPanel(title, yLabel string, xys plotter.XYs, lineColor color.Color, windowStart, windowEnd time.Time) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Min = float64(windowStart.Unix())
	p.X.Max = float64(windowEnd.Unix())
	p.X.Tick.Marker = dayTicker{}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("building line plot: %w", err)
	}
	if lineColor != nil {
		line.Color = lineColor
	}
	p.Add(line)
	return p, nil
}

// dayTicker emits one labeled tick per day across the axis range.
type dayTicker struct{}

func (dayTicker) Ticks(min, max float64) []plot.Tick {
	start := time.Unix(int64(min), 0).UTC()
	end := time.Unix(int64(max), 0).UTC()

	var ticks []plot.Tick
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ticks = append(ticks, plot.Tick{
			Value: float64(d.Unix()),
			Label: d.Format(DateFormat),
		})
	}
	return ticks
}
