package report

import (
	"fmt"

	"github.com/user/variflex_go/internal/analysis"
	"github.com/user/variflex_go/internal/parser"
)

// Figure is a rendered PNG plot with the text placed around it in the PDF.
type Figure struct {
	Key     string
	Title   string
	Caption string
	Image   []byte
}

// GeneratePlots renders the total and per-channel k(P) plots and population
// heatmaps for up to maxHeatmaps complete conditions. Plots that cannot be
// drawn are reported as messages rather than failing the whole set.
func GeneratePlots(ds *parser.Dataset, results *analysis.AnalysisResults, maxHeatmaps int) ([]Figure, []string) {
	var figures []Figure
	var problems []string

	img, err := CreateRatePlot(results, -1)
	if err != nil {
		problems = append(problems, fmt.Sprintf("total rate plot: %v", err))
	} else {
		figures = append(figures, Figure{
			Key:     "rate_total",
			Title:   "Total Product Rate Constant",
			Caption: "Sum over product channels of the phenomenological rate constants versus pressure",
			Image:   img,
		})
	}

	for ch := 0; ch < analysis.MaxProducts(results); ch++ {
		img, err := CreateRatePlot(results, ch)
		if err != nil {
			problems = append(problems, fmt.Sprintf("product channel %d plot: %v", ch+1, err))
			continue
		}
		figures = append(figures, Figure{
			Key:     fmt.Sprintf("rate_product_%d", ch+1),
			Title:   fmt.Sprintf("Product Channel %d", ch+1),
			Caption: fmt.Sprintf("Rate constant into product channel %d versus pressure", ch+1),
			Image:   img,
		})
	}

	if ds == nil {
		return figures, problems
	}
	drawn := 0
	for _, cond := range ds.Conditions() {
		if drawn >= maxHeatmaps {
			break
		}
		if !cond.Complete {
			continue
		}
		img, err := CreatePopulationHeatmap(cond)
		if err != nil {
			problems = append(problems, fmt.Sprintf("population heatmap: %v", err))
			continue
		}
		figures = append(figures, Figure{
			Key:     fmt.Sprintf("populations_%g_%g", cond.Temperature, cond.Pressure),
			Title:   fmt.Sprintf("Populations at %g K, %g Torr", cond.Temperature, cond.Pressure),
			Caption: "Projected eigenvector populations by well; rows labelled by eigenvalue",
			Image:   img,
		})
		drawn++
	}
	return figures, problems
}
