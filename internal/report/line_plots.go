package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/variflex_go/internal/analysis"
)

var plotColors = []color.Color{
	color.RGBA{R: 255, A: 255},                    // Red
	color.RGBA{G: 160, A: 255},                    // Green
	color.RGBA{B: 255, A: 255},                    // Blue
	color.RGBA{R: 255, G: 165, A: 255},            // Orange
	color.RGBA{R: 128, B: 128, A: 255},            // Purple
	color.RGBA{G: 128, B: 128, A: 255},            // Teal
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 255}, // Brown
}

// CreateRatePlot draws k(P) for every temperature on a log pressure axis.
// channel indexes the product channels; a negative channel plots the total
// rate constant. The rate axis is logarithmic when every plotted k is positive.
func CreateRatePlot(results *analysis.AnalysisResults, channel int) ([]byte, error) {
	if results == nil || len(results.Results) == 0 {
		return nil, fmt.Errorf("no analysis results to plot")
	}
	series := analysis.RateSeriesByTemperature(results, channel)
	if len(series) == 0 {
		return nil, fmt.Errorf("no rate constants for product channel %d", channel+1)
	}

	p := plot.New()
	if channel < 0 {
		p.Title.Text = "Total Product Rate Constant k(T,P)"
	} else {
		p.Title.Text = fmt.Sprintf("Rate Constant k(T,P), Product Channel %d", channel+1)
	}
	p.X.Label.Text = "Pressure (Torr)"
	p.Y.Label.Text = "k (1/s)"
	p.Add(plotter.NewGrid())

	allPositive := true
	for _, s := range series {
		for _, k := range s.Rates {
			if k <= 0 {
				allPositive = false
			}
		}
	}

	linesPlotted := false
	for i, s := range series {
		pts := make(plotter.XYs, 0, len(s.Pressures))
		for j, pressure := range s.Pressures {
			// A log axis cannot show zero or negative values.
			if pressure <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: pressure, Y: s.Rates[j]})
		}
		if len(pts) == 0 {
			continue
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create line for T=%g K: %w", s.Temperature, err)
		}
		c := plotColors[i%len(plotColors)]
		line.Color = c
		line.LineStyle.Width = vg.Points(1.5)
		points.Color = c
		points.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("%g K", s.Temperature), line, points)
		linesPlotted = true
	}
	if !linesPlotted {
		return nil, fmt.Errorf("no positive pressures to plot")
	}

	useLogScale(&p.X)
	if allPositive {
		useLogScale(&p.Y)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(10)

	return renderPNG(p, vg.Points(800), vg.Points(400))
}

// useLogScale switches axis to a log scale. A degenerate range is widened by
// a decade each way; the default widening by one unit can reach zero.
func useLogScale(axis *plot.Axis) {
	if axis.Min == axis.Max {
		axis.Min /= 10
		axis.Max *= 10
	}
	axis.Scale = plot.LogScale{}
	axis.Tick.Marker = plot.LogTicks{Prec: -1}
}

func renderPNG(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
