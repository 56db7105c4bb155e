package usecase

import (
	"math"

	"FinSight/internal/domain/models"
)

// applyGrowth fills growth_qoq and growth_yoy in place for a sequence of
// period records (most recent first). QoQ compares record i against record
// i-1 starting at i=1; YoY compares against record i-4 starting at i=4.
// A previous value of exactly zero yields no entry for that field.
func applyGrowth(records []models.PeriodRecord) []models.PeriodRecord {
	if len(records) < 2 {
		return records
	}

	for i := range records {
		if i > 0 {
			records[i].GrowthQoQ = growthAgainst(records[i], records[i-1])
		}
		if i >= 4 {
			records[i].GrowthYoY = growthAgainst(records[i], records[i-4])
		}
	}
	return records
}

func growthAgainst(cur, prev models.PeriodRecord) map[string]float64 {
	growth := make(map[string]float64)
	for field, value := range cur.Metrics {
		prevValue, ok := prev.Metrics[field]
		if !ok || prevValue == 0 {
			continue
		}
		g := (value - prevValue) / math.Abs(prevValue) * 100
		growth[field] = math.Round(g*100) / 100
	}
	return growth
}

// buildInsights derives coarse trend labels from the most recent record of
// each statement sequence.
func buildInsights(trends map[string][]models.PeriodRecord) models.TrendInsights {
	insights := models.TrendInsights{
		RevenueGrowth:  models.RevenueInsight{Trend: "stable"},
		Profitability:  models.ProfitabilityInsight{Trend: "stable", MarginDirection: "stable"},
		CashGeneration: models.CashFlowInsight{Trend: "stable", FCFTrend: "stable"},
		BalanceSheet:   models.BalanceSheetInsight{Trend: "stable", DebtTrend: "stable"},
	}

	if revenue := trends["revenue_trends"]; len(revenue) > 0 {
		latest := revenue[0]
		if g, ok := latest.GrowthQoQ["revenue"]; ok {
			insights.RevenueGrowth.LatestQoQ = fptr(g)
			if g > 5 {
				insights.RevenueGrowth.Trend = "accelerating"
			} else if g < -5 {
				insights.RevenueGrowth.Trend = "declining"
			}
		}
		if g, ok := latest.GrowthYoY["revenue"]; ok {
			insights.RevenueGrowth.LatestYoY = fptr(g)
		}
	}

	if cashFlow := trends["cash_flow_trends"]; len(cashFlow) > 0 {
		if g, ok := cashFlow[0].GrowthQoQ["free_cash_flow"]; ok {
			if g > 10 {
				insights.CashGeneration.FCFTrend = "improving"
			} else if g < -10 {
				insights.CashGeneration.FCFTrend = "declining"
			}
		}
	}

	return insights
}
