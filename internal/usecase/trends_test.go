package usecase

import (
	"testing"

	"FinSight/internal/domain/models"
)

func rec(period string, metrics map[string]float64) models.PeriodRecord {
	return models.PeriodRecord{Period: period, Metrics: metrics}
}

func TestApplyGrowthQoQ(t *testing.T) {
	records := applyGrowth([]models.PeriodRecord{
		rec("2025-06-30", map[string]float64{"revenue": 100}),
		rec("2025-03-31", map[string]float64{"revenue": 110}),
		rec("2024-12-31", map[string]float64{"revenue": 99}),
	})

	if records[0].GrowthQoQ != nil {
		t.Fatalf("first record should have no growth, got %v", records[0].GrowthQoQ)
	}
	if g := records[1].GrowthQoQ["revenue"]; g != 10.0 {
		t.Fatalf("expected QoQ growth 10.0, got %v", g)
	}
	if g := records[2].GrowthQoQ["revenue"]; g != -10.0 {
		t.Fatalf("expected QoQ growth -10.0, got %v", g)
	}
}

func TestApplyGrowthSkipsZeroPrevious(t *testing.T) {
	records := applyGrowth([]models.PeriodRecord{
		rec("2025-06-30", map[string]float64{"revenue": 0}),
		rec("2025-03-31", map[string]float64{"revenue": 50}),
	})

	if _, ok := records[1].GrowthQoQ["revenue"]; ok {
		t.Fatal("growth against a zero previous value must be omitted")
	}
}

func TestApplyGrowthYoY(t *testing.T) {
	records := applyGrowth([]models.PeriodRecord{
		rec("q0", map[string]float64{"revenue": 100}),
		rec("q1", map[string]float64{"revenue": 100}),
		rec("q2", map[string]float64{"revenue": 100}),
		rec("q3", map[string]float64{"revenue": 100}),
		rec("q4", map[string]float64{"revenue": 120}),
		rec("q5", map[string]float64{"revenue": 90}),
	})

	if records[3].GrowthYoY != nil {
		t.Fatalf("YoY growth starts at index 4, got %v at index 3", records[3].GrowthYoY)
	}
	if g := records[4].GrowthYoY["revenue"]; g != 20.0 {
		t.Fatalf("expected YoY growth 20.0, got %v", g)
	}
	if g := records[5].GrowthYoY["revenue"]; g != -10.0 {
		t.Fatalf("expected YoY growth -10.0, got %v", g)
	}
}

func TestApplyGrowthNegativePreviousUsesAbsolute(t *testing.T) {
	records := applyGrowth([]models.PeriodRecord{
		rec("q0", map[string]float64{"net_income": -100}),
		rec("q1", map[string]float64{"net_income": -50}),
	})

	if g := records[1].GrowthQoQ["net_income"]; g != 50.0 {
		t.Fatalf("expected growth 50.0 against abs(prev), got %v", g)
	}
}

func TestApplyGrowthRounding(t *testing.T) {
	records := applyGrowth([]models.PeriodRecord{
		rec("q0", map[string]float64{"revenue": 300}),
		rec("q1", map[string]float64{"revenue": 301}),
	})

	if g := records[1].GrowthQoQ["revenue"]; g != 0.33 {
		t.Fatalf("expected growth rounded to 0.33, got %v", g)
	}
}

func TestBuildInsightsDefaultsStable(t *testing.T) {
	insights := buildInsights(map[string][]models.PeriodRecord{})

	if insights.RevenueGrowth.Trend != "stable" {
		t.Fatalf("expected stable revenue trend, got %s", insights.RevenueGrowth.Trend)
	}
	if insights.Profitability.MarginDirection != "stable" {
		t.Fatalf("expected stable margin direction, got %s", insights.Profitability.MarginDirection)
	}
	if insights.CashGeneration.FCFTrend != "stable" {
		t.Fatalf("expected stable fcf trend, got %s", insights.CashGeneration.FCFTrend)
	}
	if insights.BalanceSheet.DebtTrend != "stable" {
		t.Fatalf("expected stable debt trend, got %s", insights.BalanceSheet.DebtTrend)
	}
}

func TestBuildInsightsRevenueAndCashFlow(t *testing.T) {
	latest := rec("2025-06-30", map[string]float64{"revenue": 120})
	latest.GrowthQoQ = map[string]float64{"revenue": 7.5}
	latest.GrowthYoY = map[string]float64{"revenue": 18.2}

	fcf := rec("2025-06-30", map[string]float64{"free_cash_flow": 40})
	fcf.GrowthQoQ = map[string]float64{"free_cash_flow": -15.0}

	insights := buildInsights(map[string][]models.PeriodRecord{
		"revenue_trends":   {latest},
		"cash_flow_trends": {fcf},
	})

	if insights.RevenueGrowth.Trend != "accelerating" {
		t.Fatalf("expected accelerating, got %s", insights.RevenueGrowth.Trend)
	}
	if insights.RevenueGrowth.LatestQoQ == nil || *insights.RevenueGrowth.LatestQoQ != 7.5 {
		t.Fatalf("expected latest QoQ 7.5, got %v", insights.RevenueGrowth.LatestQoQ)
	}
	if insights.RevenueGrowth.LatestYoY == nil || *insights.RevenueGrowth.LatestYoY != 18.2 {
		t.Fatalf("expected latest YoY 18.2, got %v", insights.RevenueGrowth.LatestYoY)
	}
	if insights.CashGeneration.FCFTrend != "declining" {
		t.Fatalf("expected declining fcf trend, got %s", insights.CashGeneration.FCFTrend)
	}
}
