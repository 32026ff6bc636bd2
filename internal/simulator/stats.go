package simulator

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percentiles reported for the duration distribution.
var Percentiles = []float64{50, 75, 90, 95}

// Result holds the statistics of one simulation run.
type Result struct {
	MeanDuration    float64 `json:"mean_duration"`
	StdDuration     float64 `json:"std_duration"`
	Percentile50    float64 `json:"percentile_50"`
	Percentile75    float64 `json:"percentile_75"`
	Percentile90    float64 `json:"percentile_90"`
	Percentile95    float64 `json:"percentile_95"`
	MeanCost        float64 `json:"mean_cost"`
	StdCost         float64 `json:"std_cost"`
	RiskProbability float64 `json:"risk_probability"`
}

// Spread is the distance between the 95th and 50th percentile.
func (r Result) Spread() float64 {
	return r.Percentile95 - r.Percentile50
}

// summarize aggregates per-trial samples. The inputs are not modified.
func summarize(durations, costs []float64, baseline float64) Result {
	if len(durations) == 0 {
		return Result{}
	}

	var res Result
	res.MeanDuration, res.StdDuration = stat.PopMeanStdDev(durations, nil)
	res.MeanCost, res.StdCost = stat.PopMeanStdDev(costs, nil)

	sorted := slices.Clone(durations)
	slices.Sort(sorted)
	res.Percentile50 = percentile(sorted, 50)
	res.Percentile75 = percentile(sorted, 75)
	res.Percentile90 = percentile(sorted, 90)
	res.Percentile95 = percentile(sorted, 95)

	if baseline > 0 {
		var over int
		for _, d := range durations {
			if d > baseline {
				over++
			}
		}
		res.RiskProbability = float64(over) / float64(len(durations))
	}

	// A constant sample can leave a tiny negative variance residue.
	if math.IsNaN(res.StdDuration) {
		res.StdDuration = 0
	}
	if math.IsNaN(res.StdCost) {
		res.StdCost = 0
	}
	return res
}

// percentile interpolates linearly between closest ranks, with
// rank = p/100 * (n-1), over an ascending sample.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Confidence scores a run from its sample size and relative spread.
// The result is within [50, 90], rounded to one decimal.
func Confidence(trials int, meanDuration, stdDuration float64) float64 {
	base := math.Min(90, 70+float64(trials)/100)

	var cv float64
	if meanDuration != 0 {
		cv = stdDuration / meanDuration
	}
	penalty := cv * 20

	confidence := math.Max(50, base-penalty)
	return math.Round(confidence*10) / 10
}

// observedRange returns the smallest and largest sample.
func observedRange(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return floats.Min(xs), floats.Max(xs)
}
