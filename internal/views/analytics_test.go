package views

import (
	"testing"

	"github.com/shopspring/decimal"
	"gotest.tools/assert"

	"fintrack/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAnalyticsFilter_SetPeriodSwitchesGroupBy(t *testing.T) {
	f := DefaultAnalyticsFilter()
	assert.Equal(t, f.GroupBy, core.ByMonth)

	f.SetPeriod(core.Month)
	assert.Equal(t, f.GroupBy, core.ByDay)

	f.SetGroupBy(core.ByMonth)
	assert.Equal(t, f.Period, core.Month)
	assert.Equal(t, f.GroupBy, core.ByMonth)

	f.SetPeriod(core.Year)
	assert.Equal(t, f.GroupBy, core.ByMonth)

	f.SetGroupBy(core.ByDay)
	assert.Equal(t, f.GroupBy, core.ByDay)
}

func TestAnalyticsFilter_SetCategoryCopies(t *testing.T) {
	var f AnalyticsFilter
	id := int64(4)
	f.SetCategory(&id)
	id = 9
	assert.Equal(t, *f.CategoryID, int64(4))
	f.SetCategory(nil)
	assert.Assert(t, f.CategoryID == nil)
}

func TestLabel(t *testing.T) {
	ru, en := LocaleFor("ru"), LocaleFor("en")
	assert.Equal(t, ru.Label("Jan 2024"), "Янв 2024")
	assert.Equal(t, ru.Label("05 Mar"), "05 Мар")
	assert.Equal(t, ru.Label("Jan"), "Янв")
	assert.Equal(t, en.Label("Jan 2024"), "Jan 2024")
	assert.Equal(t, ru.Label("2024-01-05"), "2024-01-05")
	assert.Equal(t, ru.Label(""), "")
}

func summary() core.AnalyticsSummary {
	return core.AnalyticsSummary{
		Currency:      "RUB",
		Balance:       dec("150"),
		TotalIncome:   dec("300"),
		TotalExpenses: dec("150"),
		BarData: []core.BarBucket{
			{Name: "Jan 2024", Income: dec("100"), Expense: dec("50")},
			{Name: "Feb 2024", Income: dec("0"), Expense: dec("80")},
			{Name: "Mar 2024", Income: dec("200"), Expense: dec("20")},
		},
		PieData: []core.PieSlice{
			{Name: "Food", Value: dec("75"), Color: "#ff0000"},
			{Name: "Rent", Value: dec("50")},
			{Name: "Fun", Value: dec("25")},
		},
		Recent: []core.RecentTransaction{
			{ID: 7, Date: core.NewDate(2024, 3, 2), CategoryName: "Food", Amount: dec("1234.5"), Type: core.Expense},
		},
	}
}

func TestBuildCharts(t *testing.T) {
	s := summary()
	c := BuildCharts(s, LocaleFor("ru"), DashboardPalette)

	assert.Equal(t, len(c.Bar), 3)
	assert.Equal(t, c.Bar[0].Label, "Янв 2024")
	assert.Equal(t, c.Bar[0].Key, "Jan 2024")

	balances := []string{"50", "-30", "150"}
	for i, want := range balances {
		assert.Assert(t, c.Area[i].Balance.Equal(dec(want)), "bucket %d balance %s", i, c.Area[i].Balance)
	}

	assert.Equal(t, c.Pie[0].Color, "#ff0000")
	assert.Equal(t, c.Pie[1].Color, DashboardPalette[1])
	assert.Equal(t, c.Pie[2].Color, DashboardPalette[2])
	assert.Equal(t, c.Pie[0].Share, 50.0)

	assert.Equal(t, c.Recent[0].Amount, "1\u00a0234,50")
	assert.Equal(t, c.Recent[0].Date, "2024-03-02")
	assert.Assert(t, c.Totals.Balance.Equal(dec("150")))

	// input untouched
	assert.Equal(t, s.BarData[0].Name, "Jan 2024")
	assert.Equal(t, s.PieData[1].Color, "")
}

func TestBuildCharts_PaletteWraps(t *testing.T) {
	var s core.AnalyticsSummary
	for i := 0; i < 9; i++ {
		s.PieData = append(s.PieData, core.PieSlice{Name: "x", Value: dec("1")})
	}
	c := BuildCharts(s, LocaleFor("en"), AnalyticsPalette)
	assert.Equal(t, c.Pie[7].Color, AnalyticsPalette[0])
	assert.Equal(t, c.Pie[8].Color, AnalyticsPalette[1])
}

func TestBuildCharts_EmptySummary(t *testing.T) {
	c := BuildCharts(core.AnalyticsSummary{}, LocaleFor("en"), AnalyticsPalette)
	assert.Equal(t, len(c.Bar), 0)
	assert.Assert(t, c.Pie != nil)
}

func TestBuildCharts_ZeroPieTotal(t *testing.T) {
	s := core.AnalyticsSummary{PieData: []core.PieSlice{{Name: "a", Value: decimal.Zero}}}
	c := BuildCharts(s, LocaleFor("en"), AnalyticsPalette)
	assert.Equal(t, c.Pie[0].Share, 0.0)
}
