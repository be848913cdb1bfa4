package views

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"gotest.tools/assert"

	"fintrack/internal/core"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Status
	}{
		{0, StatusNormal},
		{74.99, StatusNormal},
		{75, StatusCaution},
		{89.99, StatusCaution},
		{90, StatusHigh},
		{99.99, StatusHigh},
		{100, StatusOver},
		{250, StatusOver},
		{-5, StatusNormal},
		{math.NaN(), StatusNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, Classify(tt.pct), tt.want, "pct=%v", tt.pct)
	}
}

func TestBarWidthClamped(t *testing.T) {
	for _, pct := range []float64{-10, 0, 42.5, 99.9, 100, 101, 1e6, math.Inf(1), math.NaN()} {
		w := BarWidth(pct)
		assert.Assert(t, w >= 0 && w <= 100, "pct=%v width=%v", pct, w)
	}
	assert.Equal(t, BarWidth(42.5), 42.5)
	assert.Equal(t, BarWidth(130), 100.0)
}

func TestBuildBudgets(t *testing.T) {
	budgets := []core.Budget{
		{ID: 1, Limit: decimal.NewFromInt(1000), Spent: decimal.NewFromInt(500), Percentage: 50, Remaining: decimal.NewFromInt(500)},
		{ID: 2, Limit: decimal.NewFromInt(100), Spent: decimal.NewFromInt(120), Percentage: 120, Remaining: decimal.NewFromInt(-20)},
	}
	views := BuildBudgets(budgets, "RUB", LocaleFor("en"))

	assert.Equal(t, len(views), 2)
	assert.Equal(t, views[0].Status, StatusNormal)
	assert.Equal(t, views[0].Label, "500.00 RUB remaining")
	assert.Equal(t, views[0].Width, 50.0)

	assert.Equal(t, views[1].Status, StatusOver)
	assert.Equal(t, views[1].OverBudget, true)
	assert.Equal(t, views[1].Label, "Over budget!")
	assert.Equal(t, views[1].Width, 100.0)
	assert.Assert(t, views[1].Budget.Remaining.Equal(decimal.NewFromInt(-20)))
}
