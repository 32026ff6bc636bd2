package simulator

import (
	"fmt"
	"math"
	"strings"

	"github.com/haskel/planfox/internal/project"
)

const (
	assessmentRule = "═══════════════════════════════════════════════════════════════"

	// accuracyThreshold is the confidence a run needs to count as reliable.
	accuracyThreshold = 85.0
	// varianceAdviceRatio flags a spread above this share of the baseline.
	varianceAdviceRatio = 0.2
)

// Overrun returns how far actual exceeds planned, in percent of planned.
// A zero plan has no overrun.
func Overrun(actual, planned float64) float64 {
	if planned == 0 {
		return 0
	}
	return (actual - planned) / planned * 100
}

// BudgetRecommendation is the mean cost plus one standard deviation.
func (r *Report) BudgetRecommendation() float64 {
	return r.Result.MeanCost + r.Result.StdCost
}

// BufferDays is the extra time needed to reach the 90th percentile.
func (r *Report) BufferDays() float64 {
	return r.Result.Percentile90 - r.BaselineDuration
}

// Assessment renders the plain-text risk report.
func Assessment(r *Report) string {
	res := r.Result
	var b strings.Builder

	b.WriteString("\nMONTE CARLO RISK SIMULATION RESULTS\n")
	b.WriteString(assessmentRule + "\n\n")

	b.WriteString("SIMULATION PARAMETERS:\n")
	fmt.Fprintf(&b, "  - Number of Iterations: %s\n", project.FormatCount(r.Trials))
	b.WriteString("  - Risk Modeling: 3-level variance (High/Med/Low)\n")
	b.WriteString("  - Method: Monte Carlo sampling\n")

	b.WriteString("\nDURATION ANALYSIS:\n")
	fmt.Fprintf(&b, "  - Baseline (Planned): %.0f days\n", r.BaselineDuration)
	fmt.Fprintf(&b, "  - Mean (Expected): %.1f days (%+.1f%%)\n", res.MeanDuration, Overrun(res.MeanDuration, r.BaselineDuration))
	fmt.Fprintf(&b, "  - Standard Deviation: ±%.1f days\n", res.StdDuration)

	b.WriteString("\n  Confidence Intervals:\n")
	fmt.Fprintf(&b, "    - 50%% confidence: <= %.0f days\n", res.Percentile50)
	fmt.Fprintf(&b, "    - 75%% confidence: <= %.0f days\n", res.Percentile75)
	fmt.Fprintf(&b, "    - 90%% confidence: <= %.0f days (Recommended buffer)\n", res.Percentile90)
	fmt.Fprintf(&b, "    - 95%% confidence: <= %.0f days (Conservative estimate)\n", res.Percentile95)

	b.WriteString("\nCOST ANALYSIS:\n")
	fmt.Fprintf(&b, "  - Baseline (Planned): $%s\n", project.FormatMoney(r.BaselineCost))
	fmt.Fprintf(&b, "  - Mean (Expected): $%s (%+.1f%%)\n", project.FormatMoney(res.MeanCost), Overrun(res.MeanCost, r.BaselineCost))
	fmt.Fprintf(&b, "  - Standard Deviation: ±$%s\n", project.FormatMoney(res.StdCost))
	fmt.Fprintf(&b, "\n  Budget Recommendation: $%s\n", project.FormatMoney(r.BudgetRecommendation()))
	b.WriteString("     (Mean + 1σ for 84% confidence)\n")

	b.WriteString("\nRISK ASSESSMENT:\n")
	fmt.Fprintf(&b, "  - Probability of Delay: %.1f%%\n", res.RiskProbability*100)
	fmt.Fprintf(&b, "  - Risk Level: %s\n", r.RiskLevel)
	fmt.Fprintf(&b, "\n  %s\n", r.RiskLevel.Headline())

	b.WriteString("\nRECOMMENDATIONS:\n")
	fmt.Fprintf(&b, "  1. Add %.0f days buffer for 90%% confidence\n", math.Max(0, r.BufferDays()))
	fmt.Fprintf(&b, "  2. Budget extra $%s for contingency\n", project.FormatMoney(r.BudgetRecommendation()-r.BaselineCost))
	if res.StdDuration > r.BaselineDuration*varianceAdviceRatio {
		b.WriteString("  3. Focus on high-risk tasks to reduce variance\n")
	} else {
		b.WriteString("  3. Current risk profile is acceptable\n")
	}
	b.WriteString("  4. Monitor actual vs. simulated outcomes to improve future predictions\n")
	b.WriteString("  5. Re-run simulation if major project changes occur\n")

	b.WriteString("\nSIMULATION ACCURACY:\n")
	fmt.Fprintf(&b, "  - Confidence Level: %.1f%%\n", r.ConfidenceLevel)
	fmt.Fprintf(&b, "  - Based on: %s Monte Carlo iterations\n", project.FormatCount(r.Trials))
	if r.ConfidenceLevel >= accuracyThreshold {
		b.WriteString("  [OK] Meets 85% accuracy threshold for risk prediction\n")
	} else {
		b.WriteString("  [!] Consider running more simulations (recommend 10,000+)\n")
	}

	return b.String()
}
