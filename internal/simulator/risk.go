package simulator

import "github.com/haskel/planfox/internal/project"

// Range is a closed interval of duration multipliers.
type Range struct {
	Min float64
	Max float64
}

// Multipliers maps each risk level to the uniform range its duration
// multiplier is drawn from.
var Multipliers = map[project.RiskLevel]Range{
	project.RiskHigh:   {Min: 0.80, Max: 1.50},
	project.RiskMedium: {Min: 0.90, Max: 1.20},
	project.RiskLow:    {Min: 0.95, Max: 1.05},
}

// MultiplierRange returns the range for level. Unknown levels do not vary.
func MultiplierRange(level project.RiskLevel) Range {
	if r, ok := Multipliers[level]; ok {
		return r
	}
	return Range{Min: 1, Max: 1}
}

// Category classifies the probability of a delay.
type Category string

const (
	CategoryLow    Category = "LOW"
	CategoryMedium Category = "MEDIUM"
	CategoryHigh   Category = "HIGH"
)

// Categorize maps a delay probability to a Category.
func Categorize(probability float64) Category {
	switch {
	case probability > 0.7:
		return CategoryHigh
	case probability > 0.4:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// Headline is a one-line verdict for the category.
func (c Category) Headline() string {
	switch c {
	case CategoryHigh:
		return "HIGH RISK: Significant chance of exceeding baseline"
	case CategoryMedium:
		return "MEDIUM RISK: Moderate chance of delays"
	default:
		return "LOW RISK: Project likely to meet timeline"
	}
}
