package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/variflex_go/internal/parser"
)

// populationGrid exposes a population table as a plotter.GridXYZ with wells
// along X and eigenvalues along Y.
type populationGrid struct {
	table [][]float64
}

func (g populationGrid) Dims() (c, r int) {
	return len(g.table[0]), len(g.table)
}

func (g populationGrid) Z(c, r int) float64 {
	return g.table[r][c]
}

func (g populationGrid) X(c int) float64 {
	return float64(c)
}

func (g populationGrid) Y(r int) float64 {
	return float64(r)
}

// CreatePopulationHeatmap draws the projected eigenvector populations of one
// condition, one row per eigenvalue and one column per well.
func CreatePopulationHeatmap(cond *parser.Condition) ([]byte, error) {
	if cond == nil || !cond.Complete {
		return nil, fmt.Errorf("no eigenvalue block to plot")
	}
	if len(cond.Populations) == 0 || cond.NumWells() == 0 {
		return nil, fmt.Errorf("empty population table for T=%g K, P=%g Torr", cond.Temperature, cond.Pressure)
	}
	grid := populationGrid{table: cond.Populations}
	numCols, numRows := grid.Dims()

	zMin, zMax := math.Inf(1), math.Inf(-1)
	for _, row := range cond.Populations {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			zMin = math.Min(zMin, v)
			zMax = math.Max(zMax, v)
		}
	}
	if math.IsInf(zMin, 1) {
		zMin, zMax = 0, 1
	}
	if zMin == zMax {
		zMax = zMin + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Eigenvector Populations, T = %g K, P = %g Torr", cond.Temperature, cond.Pressure)
	p.X.Label.Text = "Well"
	p.Y.Label.Text = "Eigenvalue"

	xTicks := make([]plot.Tick, numCols)
	for c := 0; c < numCols; c++ {
		xTicks[c] = plot.Tick{Value: float64(c), Label: fmt.Sprintf("%d", c+1)}
	}
	yTicks := make([]plot.Tick, numRows)
	for r := 0; r < numRows; r++ {
		yTicks[r] = plot.Tick{Value: float64(r), Label: fmt.Sprintf("%.3g", cond.Eigenvalues[r])}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Min = -0.5
	p.X.Max = float64(numCols) - 0.5
	p.Y.Min = -0.5
	p.Y.Max = float64(numRows) - 0.5

	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	hm.Min = zMin
	hm.Max = zMax
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	height := vg.Points(200 + 20*float64(numRows))
	if height > vg.Points(600) {
		height = vg.Points(600)
	}
	return renderPNG(p, vg.Points(800), height)
}
