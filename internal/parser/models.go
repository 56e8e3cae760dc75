package parser

import "sort"

// DefaultColumnWidth is the fixed field width VariFlex uses for its numeric tables.
const DefaultColumnWidth = 11

// Condition holds the eigenvalue and rate-constant tables reported for one
// (temperature, pressure) state.
type Condition struct {
	Temperature float64 // K
	Pressure    float64 // Torr

	// Populations is the projected eigenvector table with the two eigenvalue
	// columns removed: one row per eigenvalue, one column per well.
	Populations           [][]float64
	Eigenvalues           []float64 // second-to-last column of the eigenvector block
	NormalisedEigenvalues []float64 // last column of the eigenvector block

	// WellRateConstants has one row per stage in the sum and one column per well.
	WellRateConstants [][]float64
	// ProductRateConstants has one row per stage in the sum and one column per product channel.
	ProductRateConstants [][]float64

	// Complete is set once all five tables have been read. A pressure marker
	// alone only creates a placeholder.
	Complete bool
}

// NumWells returns the number of well columns in the population table.
func (c *Condition) NumWells() int {
	if len(c.Populations) == 0 {
		return 0
	}
	return len(c.Populations[0])
}

// Dataset maps temperature (K) to pressure (Torr) to the condition reported there.
type Dataset struct {
	Data     map[float64]map[float64]*Condition
	Sources  []string // report names in the order they were scanned
	Warnings []string // non-fatal oddities met while scanning
}

// NewDataset returns an empty Dataset ready to be filled by a Scanner.
func NewDataset() *Dataset {
	return &Dataset{
		Data:     make(map[float64]map[float64]*Condition),
		Sources:  make([]string, 0),
		Warnings: make([]string, 0),
	}
}

// ensureTemperature inserts an empty pressure map for t unless one exists.
func (d *Dataset) ensureTemperature(t float64) map[float64]*Condition {
	byPressure, ok := d.Data[t]
	if !ok {
		byPressure = make(map[float64]*Condition)
		d.Data[t] = byPressure
	}
	return byPressure
}

// ensureCondition inserts a placeholder Condition for (t, p) unless one exists.
func (d *Dataset) ensureCondition(t, p float64) *Condition {
	byPressure := d.ensureTemperature(t)
	cond, ok := byPressure[p]
	if !ok {
		cond = &Condition{Temperature: t, Pressure: p}
		byPressure[p] = cond
	}
	return cond
}

// Get returns the condition recorded for (t, p), if any.
func (d *Dataset) Get(t, p float64) (*Condition, bool) {
	cond, ok := d.Data[t][p]
	return cond, ok
}

// Temperatures returns the temperature keys in ascending order.
func (d *Dataset) Temperatures() []float64 {
	temps := make([]float64, 0, len(d.Data))
	for t := range d.Data {
		temps = append(temps, t)
	}
	sort.Float64s(temps)
	return temps
}

// Pressures returns the pressure keys recorded under t in ascending order.
func (d *Dataset) Pressures(t float64) []float64 {
	byPressure := d.Data[t]
	pressures := make([]float64, 0, len(byPressure))
	for p := range byPressure {
		pressures = append(pressures, p)
	}
	sort.Float64s(pressures)
	return pressures
}

// Conditions returns every condition, placeholders included, ordered by
// temperature and then pressure.
func (d *Dataset) Conditions() []*Condition {
	var out []*Condition
	for _, t := range d.Temperatures() {
		for _, p := range d.Pressures(t) {
			out = append(out, d.Data[t][p])
		}
	}
	return out
}

// Len returns the number of (temperature, pressure) keys.
func (d *Dataset) Len() int {
	n := 0
	for _, byPressure := range d.Data {
		n += len(byPressure)
	}
	return n
}
