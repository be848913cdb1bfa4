package views

import (
	"fintrack/internal/core"
)

// KPI is a labelled, already formatted dashboard figure
type KPI struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dashboard is the landing page after login
type Dashboard struct {
	Cards  []KPI  `json:"cards"`
	Charts Charts `json:"charts"`
}

// BuildDashboard lays out the four headline cards. Available funds is the
// balance; there is no separate reservation concept.
func BuildDashboard(s core.AnalyticsSummary, l Locale) Dashboard {
	return Dashboard{
		Cards: []KPI{
			{Key: "total_balance", Value: l.Money(s.Balance, s.Currency)},
			{Key: "monthly_income", Value: l.Money(s.TotalIncome, s.Currency)},
			{Key: "monthly_expense", Value: l.Money(s.TotalExpenses, s.Currency)},
			{Key: "available_funds", Value: l.Money(s.Balance, s.Currency)},
		},
		Charts: BuildCharts(s, l, DashboardPalette),
	}
}
