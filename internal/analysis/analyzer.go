package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/user/variflex_go/internal/parser"
)

// columnSums sums each column of a rectangular table over its rows.
func columnSums(table [][]float64) []float64 {
	if len(table) == 0 || len(table[0]) == 0 {
		return []float64{}
	}
	rows, cols := len(table), len(table[0])
	flat := make([]float64, 0, rows*cols)
	for _, row := range table {
		flat = append(flat, row...)
	}
	m := mat.NewDense(rows, cols, flat)

	sums := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		sums[j] = floats.Sum(col)
	}
	return sums
}

// slowestEigenvalue returns the eigenvalue of smallest magnitude.
func slowestEigenvalue(eigenvalues []float64) float64 {
	if len(eigenvalues) == 0 {
		return math.NaN()
	}
	mags := make([]float64, len(eigenvalues))
	for i, v := range eigenvalues {
		mags[i] = math.Abs(v)
	}
	return eigenvalues[floats.MinIdx(mags)]
}

// eigenvalueSeparation splits eigenvalues into chemically significant ones
// (|normalised| <= threshold) and relaxation ones, and returns the count of
// significant eigenvalues together with the ratio of the smallest relaxation
// magnitude to the largest significant magnitude.
func eigenvalueSeparation(eigenvalues, normalised []float64, threshold float64) (int, float64) {
	var significant, relaxation []float64
	for i, v := range eigenvalues {
		if math.Abs(normalised[i]) <= threshold {
			significant = append(significant, math.Abs(v))
		} else {
			relaxation = append(relaxation, math.Abs(v))
		}
	}
	if len(significant) == 0 || len(relaxation) == 0 {
		return len(significant), math.NaN()
	}
	largest := floats.Max(significant)
	if largest == 0 {
		return len(significant), math.NaN()
	}
	return len(significant), floats.Min(relaxation) / largest
}

func analyzeCondition(cond *parser.Condition, threshold float64) ConditionResult {
	res := ConditionResult{
		Temperature:       cond.Temperature,
		Pressure:          cond.Pressure,
		NumEigenvalues:    len(cond.Eigenvalues),
		NumWells:          cond.NumWells(),
		SlowestEigenvalue: slowestEigenvalue(cond.Eigenvalues),
		WellRates:         columnSums(cond.WellRateConstants),
		ProductRates:      columnSums(cond.ProductRateConstants),
	}
	res.NumProducts = len(res.ProductRates)
	res.SignificantEigenvalues, res.EigenvalueSeparation =
		eigenvalueSeparation(cond.Eigenvalues, cond.NormalisedEigenvalues, threshold)
	res.TotalRate = floats.Sum(res.ProductRates)
	return res
}

// AnalyzeDataset derives rate totals and eigenvalue statistics for every
// complete condition in ds.
func AnalyzeDataset(ds *parser.Dataset, opts Options) (*AnalysisResults, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("dataset is nil or empty, cannot analyze")
	}
	threshold := opts.SignificanceThreshold
	if threshold <= 0 {
		threshold = DefaultSignificanceThreshold
	}

	results := NewAnalysisResults()
	results.RunID = uuid.NewString()
	results.Sources = append(results.Sources, ds.Sources...)
	results.SignificanceThreshold = threshold

	for _, cond := range ds.Conditions() {
		if !cond.Complete {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf(
				"Skipping T=%g K, P=%g Torr: pressure marker without an eigenvalue block.", cond.Temperature, cond.Pressure))
			continue
		}
		res := analyzeCondition(cond, threshold)
		if res.NumEigenvalues == 0 {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf(
				"T=%g K, P=%g Torr: empty eigenvector table.", cond.Temperature, cond.Pressure))
		}
		if res.NumProducts == 0 {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf(
				"T=%g K, P=%g Torr: empty product rate table.", cond.Temperature, cond.Pressure))
		}
		results.Results = append(results.Results, res)

		results.RankedByTotalRate = append(results.RankedByTotalRate,
			RankedConditionInfo{Temperature: res.Temperature, Pressure: res.Pressure, Value: res.TotalRate})
		if !math.IsNaN(res.EigenvalueSeparation) {
			results.RankedBySeparation = append(results.RankedBySeparation,
				RankedConditionInfo{Temperature: res.Temperature, Pressure: res.Pressure, Value: res.EigenvalueSeparation})
		}
	}

	sort.SliceStable(results.RankedByTotalRate, func(i, j int) bool {
		return results.RankedByTotalRate[i].Value > results.RankedByTotalRate[j].Value
	})
	sort.SliceStable(results.RankedBySeparation, func(i, j int) bool {
		return results.RankedBySeparation[i].Value > results.RankedBySeparation[j].Value
	})

	if len(results.Results) == 0 {
		results.AnalysisErrors = append(results.AnalysisErrors, "Analysis completed but no condition had a complete eigenvalue block.")
	}
	return results, nil
}

// RateSeriesByTemperature groups rate constants by temperature as functions of pressure.
// channel indexes ProductRates; a negative channel selects TotalRate.
// Conditions without that channel are left out.
func RateSeriesByTemperature(results *AnalysisResults, channel int) []RateSeries {
	if results == nil {
		return nil
	}
	var series []RateSeries
	index := make(map[float64]int)
	for _, res := range results.Results {
		var k float64
		switch {
		case channel < 0:
			k = res.TotalRate
		case channel < len(res.ProductRates):
			k = res.ProductRates[channel]
		default:
			continue
		}
		i, ok := index[res.Temperature]
		if !ok {
			i = len(series)
			index[res.Temperature] = i
			series = append(series, RateSeries{Temperature: res.Temperature})
		}
		series[i].Pressures = append(series[i].Pressures, res.Pressure)
		series[i].Rates = append(series[i].Rates, k)
	}
	return series
}

// MaxProducts returns the largest product channel count over all results,
// counted from ProductRates like RateSeriesByTemperature.
func MaxProducts(results *AnalysisResults) int {
	n := 0
	if results == nil {
		return n
	}
	for _, res := range results.Results {
		n = max(n, len(res.ProductRates))
	}
	return n
}
