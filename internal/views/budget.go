package views

import (
	"math"

	"fintrack/internal/core"
)

// Status is the colour band of a budget bar
type Status string

const (
	StatusNormal  Status = "normal"
	StatusCaution Status = "caution"
	StatusHigh    Status = "high"
	StatusOver    Status = "over"
)

// Classify maps a usage percentage to its band. NaN counts as normal.
func Classify(pct float64) Status {
	switch {
	case pct >= 100:
		return StatusOver
	case pct >= 90:
		return StatusHigh
	case pct >= 75:
		return StatusCaution
	default:
		return StatusNormal
	}
}

// BarWidth clamps a percentage to the drawable 0..100 range
func BarWidth(pct float64) float64 {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	return math.Min(pct, 100)
}

// BudgetView is one rendered budget card. Spent, percentage and remaining are
// shown exactly as the backend computed them.
type BudgetView struct {
	Budget     core.Budget `json:"budget"`
	Status     Status      `json:"status"`
	Width      float64     `json:"width"`
	OverBudget bool        `json:"over_budget"`
	Label      string      `json:"label"`
	Spent      string      `json:"spent"`
	Limit      string      `json:"limit"`
}

// BuildBudgets renders budgets in input order
func BuildBudgets(budgets []core.Budget, currency string, l Locale) []BudgetView {
	out := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		v := BudgetView{
			Budget:     b,
			Status:     Classify(b.Percentage),
			Width:      BarWidth(b.Percentage),
			OverBudget: b.Percentage >= 100,
			Spent:      l.Money(b.Spent, currency),
			Limit:      l.Money(b.Limit, currency),
		}
		if v.OverBudget {
			v.Label = l.words.overBudget
		} else {
			v.Label = l.Money(b.Remaining, currency) + " " + l.words.remaining
		}
		out = append(out, v)
	}
	return out
}
