package views

import (
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Chart palettes. A pie slice without its own colour takes palette[i % len].
var (
	AnalyticsPalette = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#8884d8", "#82ca9d", "#ffc658"}
	DashboardPalette = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#8884d8"}
)

// backend bucket keys use C-locale month abbreviations ("Jan 2024", "05 Jan")
var bucketMonths = map[string]int{
	"Jan": 0, "Feb": 1, "Mar": 2, "Apr": 3, "May": 4, "Jun": 5,
	"Jul": 6, "Aug": 7, "Sep": 8, "Oct": 9, "Nov": 10, "Dec": 11,
}

// AnalyticsFilter is the query state of the analytics page
type AnalyticsFilter struct {
	GroupBy    core.GroupBy `json:"group_by"`
	Period     core.Period  `json:"period"`
	CategoryID *int64       `json:"category_id,omitempty"`
}

// DefaultAnalyticsFilter is a yearly window bucketed by month
func DefaultAnalyticsFilter() AnalyticsFilter {
	return AnalyticsFilter{GroupBy: core.ByMonth, Period: core.Year}
}

// SetPeriod changes the window and picks the matching bucket size: a month is
// shown by day, anything longer by month.
func (f *AnalyticsFilter) SetPeriod(p core.Period) {
	f.Period = p
	if p == core.Month {
		f.GroupBy = core.ByDay
	} else {
		f.GroupBy = core.ByMonth
	}
}

// SetGroupBy overrides the bucket size without touching the period
func (f *AnalyticsFilter) SetGroupBy(g core.GroupBy) {
	f.GroupBy = g
}

// SetCategory narrows the summary to one category; nil clears it
func (f *AnalyticsFilter) SetCategory(id *int64) {
	if id == nil {
		f.CategoryID = nil
		return
	}
	v := *id
	f.CategoryID = &v
}

// Label localizes a bucket key. Month tokens are translated one by one and
// everything else passes through, so "Jan 2024" becomes "Янв 2024".
func (l Locale) Label(key string) string {
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return key
	}
	changed := false
	for i, tok := range tokens {
		if m, ok := bucketMonths[tok]; ok {
			tokens[i] = l.months[m]
			changed = true
		}
	}
	if !changed {
		return key
	}
	return strings.Join(tokens, " ")
}

// BarPoint is one time bucket of income and expense
type BarPoint struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// AreaPoint adds the running net balance up to and including the bucket
type AreaPoint struct {
	BarPoint
	Balance decimal.Decimal `json:"balance"`
}

// PieView is one category slice; Share is a percentage of the total
type PieView struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
	Share float64         `json:"share"`
}

// Totals are the headline figures in the summary currency
type Totals struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// RecentRow is a formatted recent transaction
type RecentRow struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Income      bool   `json:"income"`
}

// Charts is everything the analytics and dashboard pages draw
type Charts struct {
	Totals Totals      `json:"totals"`
	Bar    []BarPoint  `json:"bar"`
	Area   []AreaPoint `json:"area"`
	Pie    []PieView   `json:"pie"`
	Recent []RecentRow `json:"recent"`
}

// BuildCharts derives the chart series from a summary. The summary is only read.
func BuildCharts(s core.AnalyticsSummary, l Locale, palette []string) Charts {
	c := Charts{
		Totals: Totals{Currency: s.Currency, Balance: s.Balance, Income: s.TotalIncome, Expense: s.TotalExpenses},
		Bar:    make([]BarPoint, 0, len(s.BarData)),
		Area:   make([]AreaPoint, 0, len(s.BarData)),
		Pie:    make([]PieView, 0, len(s.PieData)),
		Recent: make([]RecentRow, 0, len(s.Recent)),
	}

	running := decimal.Zero
	for _, b := range s.BarData {
		p := BarPoint{Key: b.Name, Label: l.Label(b.Name), Income: b.Income, Expense: b.Expense}
		running = running.Add(b.Income).Sub(b.Expense)
		c.Bar = append(c.Bar, p)
		c.Area = append(c.Area, AreaPoint{BarPoint: p, Balance: running})
	}

	total := decimal.Zero
	for _, p := range s.PieData {
		total = total.Add(p.Value)
	}
	for i, p := range s.PieData {
		color := p.Color
		if color == "" && len(palette) > 0 {
			color = palette[i%len(palette)]
		}
		var share float64
		if total.IsPositive() {
			share = p.Value.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		c.Pie = append(c.Pie, PieView{Name: p.Name, Value: p.Value, Color: color, Share: share})
	}

	for _, r := range s.Recent {
		c.Recent = append(c.Recent, RecentRow{
			ID:          r.ID,
			Date:        r.Date.String(),
			Category:    r.CategoryName,
			Description: r.Description,
			Amount:      l.Number(r.Amount),
			Income:      r.Type == core.Income,
		})
	}
	return c
}
