package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/project"
)

func newTable(t *testing.T, durations []float64, risks []project.RiskLevel) *project.Table {
	t.Helper()
	tasks := make([]project.Task, len(durations))
	for i, d := range durations {
		tasks[i] = project.Task{
			ID:         i + 1,
			Name:       fmt.Sprintf("Task %d", i+1),
			Duration:   d,
			Resource:   fmt.Sprintf("R%d", i+1),
			CostPerDay: 500,
			Risk:       risks[i],
		}
	}
	table, err := project.NewTable(tasks)
	require.NoError(t, err)
	return table
}

func threeLowTasks(t *testing.T) *project.Table {
	return newTable(t,
		[]float64{10, 15, 8},
		[]project.RiskLevel{project.RiskLow, project.RiskLow, project.RiskLow},
	)
}

func mixedTable(t *testing.T) *project.Table {
	return newTable(t,
		[]float64{10, 15, 8, 12, 20},
		[]project.RiskLevel{project.RiskHigh, project.RiskMedium, project.RiskLow, project.RiskHigh, project.RiskMedium},
	)
}

// zeroSource always yields zero, so every multiplier is the low end of its range.
type zeroSource struct{}

func (zeroSource) Uint64() uint64 { return 0 }

func TestMultiplierRange(t *testing.T) {
	assert.Equal(t, Range{Min: 0.80, Max: 1.50}, MultiplierRange(project.RiskHigh))
	assert.Equal(t, Range{Min: 0.90, Max: 1.20}, MultiplierRange(project.RiskMedium))
	assert.Equal(t, Range{Min: 0.95, Max: 1.05}, MultiplierRange(project.RiskLow))
	assert.Equal(t, Range{Min: 1, Max: 1}, MultiplierRange(project.RiskLevel("Unknown")))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		probability float64
		want        Category
	}{
		{0, CategoryLow},
		{0.4, CategoryLow},
		{0.41, CategoryMedium},
		{0.7, CategoryMedium},
		{0.71, CategoryHigh},
		{1, CategoryHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.probability), "probability %v", tt.probability)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 4.0, percentile(sorted, 75), 1e-12)
	assert.InDelta(t, 4.6, percentile(sorted, 90), 1e-12)
	assert.InDelta(t, 4.8, percentile(sorted, 95), 1e-12)
	assert.InDelta(t, 5.0, percentile(sorted, 100), 1e-12)
	assert.InDelta(t, 1.0, percentile(sorted, 0), 1e-12)

	assert.InDelta(t, 15.0, percentile([]float64{10, 20}, 50), 1e-12)
	assert.Equal(t, 7.0, percentile([]float64{7}, 95))
	assert.Equal(t, 0.0, percentile(nil, 50))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name   string
		trials int
		mean   float64
		std    float64
		want   float64
	}{
		{"no variance", 1000, 100, 0, 80},
		{"base capped at 90", 10000, 100, 0, 90},
		{"variance penalty", 1000, 100, 50, 70},
		{"floor at 50", 100, 10, 20, 50},
		{"zero mean", 500, 0, 3, 75},
		{"rounded to one decimal", 150, 3, 1, 64.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.trials, tt.mean, tt.std), 1e-9)
		})
	}
}

func TestOverrun(t *testing.T) {
	assert.InDelta(t, 10.0, Overrun(110, 100), 1e-9)
	assert.InDelta(t, -5.0, Overrun(95, 100), 1e-9)
	assert.Equal(t, 0.0, Overrun(5, 0))
}

func TestSimulate_ThreeLowTasks(t *testing.T) {
	sim := New(Options{Workers: 4, Seed: 42}, nil)

	rep, err := sim.Simulate(context.Background(), threeLowTasks(t), 1000)
	require.NoError(t, err)

	res := rep.Result
	assert.Equal(t, "success", rep.Status)
	assert.Equal(t, 1000, rep.Trials)
	assert.Equal(t, uint64(42), rep.Seed)
	assert.InDelta(t, 33.0, rep.BaselineDuration, 1e-9)
	assert.InDelta(t, 16500.0, rep.BaselineCost, 1e-9)

	assert.InDelta(t, 33.0, res.MeanDuration, 33*0.05)
	assert.GreaterOrEqual(t, res.RiskProbability, 0.35)
	assert.LessOrEqual(t, res.RiskProbability, 0.65)
	assert.Greater(t, res.StdDuration, 0.0)
	assert.InDelta(t, res.MeanDuration*500, res.MeanCost, 1e-6)

	assert.GreaterOrEqual(t, rep.MinDuration, 33*0.95-1e-9)
	assert.LessOrEqual(t, rep.MaxDuration, 33*1.05+1e-9)

	assert.Equal(t, Categorize(res.RiskProbability), rep.RiskLevel)
	assert.Equal(t, Confidence(1000, res.MeanDuration, res.StdDuration), rep.ConfidenceLevel)
}

func TestSimulate_PercentilesOrdered(t *testing.T) {
	sim := New(Options{Seed: 7}, nil)

	for _, trials := range []int{1, 2, 10, 100, 5000} {
		rep, err := sim.Simulate(context.Background(), mixedTable(t), trials)
		require.NoError(t, err)

		res := rep.Result
		assert.LessOrEqual(t, res.Percentile50, res.Percentile75)
		assert.LessOrEqual(t, res.Percentile75, res.Percentile90)
		assert.LessOrEqual(t, res.Percentile90, res.Percentile95)
		assert.GreaterOrEqual(t, res.RiskProbability, 0.0)
		assert.LessOrEqual(t, res.RiskProbability, 1.0)
		assert.GreaterOrEqual(t, rep.ConfidenceLevel, 50.0)
		assert.LessOrEqual(t, rep.ConfidenceLevel, 90.0)
	}
}

func TestSimulate_ReproducibleAcrossWorkers(t *testing.T) {
	table := mixedTable(t)

	one, err := New(Options{Workers: 1, Seed: 99}, nil).Simulate(context.Background(), table, 3000)
	require.NoError(t, err)
	many, err := New(Options{Workers: 8, Seed: 99}, nil).Simulate(context.Background(), table, 3000)
	require.NoError(t, err)

	assert.Equal(t, one.Result, many.Result)
	assert.Equal(t, one.RiskAssessment, many.RiskAssessment)

	other, err := New(Options{Workers: 8, Seed: 100}, nil).Simulate(context.Background(), table, 3000)
	require.NoError(t, err)
	assert.NotEqual(t, one.Result.MeanDuration, other.Result.MeanDuration)
}

func TestSimulate_InjectedSource(t *testing.T) {
	sim := New(Options{
		Workers: 2,
		Source:  func(int) rand.Source { return zeroSource{} },
	}, nil)

	table := newTable(t,
		[]float64{10, 20},
		[]project.RiskLevel{project.RiskHigh, project.RiskLow},
	)
	rep, err := sim.Simulate(context.Background(), table, 200)
	require.NoError(t, err)

	// 10*0.80 + 20*0.95
	want := 27.0
	res := rep.Result
	assert.InDelta(t, want, res.MeanDuration, 1e-9)
	assert.InDelta(t, 0.0, res.StdDuration, 1e-9)
	assert.InDelta(t, want, res.Percentile50, 1e-9)
	assert.InDelta(t, want, res.Percentile95, 1e-9)
	assert.InDelta(t, want*500, res.MeanCost, 1e-6)
	assert.Equal(t, 0.0, res.RiskProbability)
	assert.Equal(t, uint64(0), rep.Seed)
	assert.InDelta(t, 72.0, rep.ConfidenceLevel, 1e-9)
}

func TestSimulate_EmptyTable(t *testing.T) {
	table, err := project.NewTable(nil)
	require.NoError(t, err)

	rep, err := New(Options{Seed: 1}, nil).Simulate(context.Background(), table, 1000)
	require.NoError(t, err)

	assert.Equal(t, Result{}, rep.Result)
	assert.Equal(t, 0.0, rep.BaselineDuration)
	assert.Equal(t, CategoryLow, rep.RiskLevel)
	assert.InDelta(t, 80.0, rep.ConfidenceLevel, 1e-9)
	assert.Contains(t, rep.RiskAssessment, "(+0.0%)")
}

func TestSimulate_InvalidTrials(t *testing.T) {
	sim := New(Options{Seed: 1}, nil)

	for _, trials := range []int{0, -1, -1000} {
		_, err := sim.Simulate(context.Background(), threeLowTasks(t), trials)
		require.Error(t, err)
		assert.True(t, apperr.IsInput(err), "trials %d", trials)
	}
}

func TestSimulate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Workers: 2, Seed: 1}, nil).Simulate(ctx, mixedTable(t), 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.KindComputation, apperr.KindOf(err))
}

func TestSimulate_Convergence(t *testing.T) {
	table := mixedTable(t)

	run := func(trials, runs int) (means, spreads []float64) {
		for i := 0; i < runs; i++ {
			rep, err := New(Options{Seed: uint64(1000 + i)}, nil).Simulate(context.Background(), table, trials)
			require.NoError(t, err)
			means = append(means, rep.Result.MeanDuration)
			spreads = append(spreads, rep.Result.Spread())
		}
		return means, spreads
	}

	smallMeans, smallSpreads := run(100, 20)
	largeMeans, largeSpreads := run(10000, 5)

	_, smallSD := stat.PopMeanStdDev(smallMeans, nil)
	_, largeSD := stat.PopMeanStdDev(largeMeans, nil)
	assert.Less(t, largeSD, smallSD, "mean should stabilize with more trials")

	smallSpread := stat.Mean(smallSpreads, nil)
	largeSpread := stat.Mean(largeSpreads, nil)
	assert.Greater(t, largeSpread, 0.0)
	assert.Less(t, math.Abs(smallSpread-largeSpread)/largeSpread, 0.25,
		"p95-p50 spread should not depend on trial count: %.3f vs %.3f", smallSpread, largeSpread)
}

func TestAssessment(t *testing.T) {
	rep, err := New(Options{Seed: 42}, nil).Simulate(context.Background(), threeLowTasks(t), 1000)
	require.NoError(t, err)

	text := rep.RiskAssessment
	assert.Contains(t, text, "MONTE CARLO RISK SIMULATION RESULTS")
	assert.Contains(t, text, "Number of Iterations: 1,000")
	assert.Contains(t, text, "Baseline (Planned): 33 days")
	assert.Contains(t, text, "Baseline (Planned): $16,500.00")
	assert.Contains(t, text, "Risk Level: "+string(rep.RiskLevel))
	assert.Contains(t, text, rep.RiskLevel.Headline())
	assert.Contains(t, text, "Current risk profile is acceptable")
	assert.Contains(t, text, "Consider running more simulations")
}

func TestReportHelpers(t *testing.T) {
	rep := &Report{
		BaselineDuration: 30,
		Result:           Result{Percentile90: 36, MeanCost: 1000, StdCost: 150},
	}
	assert.InDelta(t, 6.0, rep.BufferDays(), 1e-9)
	assert.InDelta(t, 1150.0, rep.BudgetRecommendation(), 1e-9)
}
