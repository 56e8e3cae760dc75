package analysis

// DefaultSignificanceThreshold is the largest |normalised eigenvalue| still
// counted as a chemically significant (reactive) eigenvalue.
const DefaultSignificanceThreshold = 0.1

// Options tunes AnalyzeDataset.
type Options struct {
	SignificanceThreshold float64
}

// ConditionResult holds the derived quantities for one (temperature, pressure) state.
type ConditionResult struct {
	Temperature float64 // K
	Pressure    float64 // Torr

	NumEigenvalues         int
	NumWells               int
	NumProducts            int
	SignificantEigenvalues int     // eigenvalues with |normalised| <= threshold
	SlowestEigenvalue      float64 // eigenvalue of smallest magnitude, NaN if none
	EigenvalueSeparation   float64 // smallest relaxation |λ| over largest significant |λ|, NaN if undefined

	WellRates    []float64 // per well, summed over stages
	ProductRates []float64 // per product channel, summed over stages
	TotalRate    float64   // sum of ProductRates
}

// RankedConditionInfo is used for ranking conditions by one quantity.
type RankedConditionInfo struct {
	Temperature float64
	Pressure    float64
	Value       float64
}

// RateSeries is k(P) at one temperature for one product channel (or the total).
type RateSeries struct {
	Temperature float64
	Pressures   []float64
	Rates       []float64
}

// AnalysisResults holds all results from the analysis.
type AnalysisResults struct {
	RunID                 string
	Sources               []string
	SignificanceThreshold float64
	Results               []ConditionResult     // ordered by temperature, then pressure
	RankedByTotalRate     []RankedConditionInfo // descending
	RankedBySeparation    []RankedConditionInfo // descending, NaN separations omitted
	AnalysisErrors        []string
}

func NewAnalysisResults() *AnalysisResults {
	return &AnalysisResults{
		Sources:            make([]string, 0),
		Results:            make([]ConditionResult, 0),
		RankedByTotalRate:  make([]RankedConditionInfo, 0),
		RankedBySeparation: make([]RankedConditionInfo, 0),
		AnalysisErrors:     make([]string, 0),
	}
}
