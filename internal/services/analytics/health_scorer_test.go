package analytics

import (
	"testing"
	"time"

	"FinSight/internal/domain/models"
)

func annualTable(rows map[string]float64) *models.StatementTable {
	t := models.NewStatementTable([]models.PeriodColumn{
		{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	})
	for row, v := range rows {
		t.SetCell(row, 0, v)
	}
	return t
}

func fp(v float64) *float64 { return &v }

func TestIndicators(t *testing.T) {
	s := NewHealthScorer()
	balance := annualTable(map[string]float64{
		"Current Assets":      200,
		"Current Liabilities": 100,
		"Inventory":           50,
		"Total Debt":          60,
		"Stockholders Equity": 120,
		"Total Assets":        300,
	})
	income := annualTable(map[string]float64{"Total Revenue": 450})
	info := models.InfoRecord{
		"returnOnEquity": 0.25,
		"returnOnAssets": 0.12,
		"profitMargins":  0.22,
	}

	ind := s.Indicators(info, income, balance)

	if ind.CurrentRatio == nil || *ind.CurrentRatio != 2.0 {
		t.Fatalf("expected current ratio 2.0, got %v", ind.CurrentRatio)
	}
	if ind.QuickRatio == nil || *ind.QuickRatio != 1.5 {
		t.Fatalf("expected quick ratio 1.5, got %v", ind.QuickRatio)
	}
	if ind.DebtToEquity == nil || *ind.DebtToEquity != 0.5 {
		t.Fatalf("expected debt to equity 0.5, got %v", ind.DebtToEquity)
	}
	if ind.DebtToAssets == nil || *ind.DebtToAssets != 0.2 {
		t.Fatalf("expected debt to assets 0.2, got %v", ind.DebtToAssets)
	}
	if ind.ROE == nil || *ind.ROE != 0.25 {
		t.Fatalf("expected ROE 0.25, got %v", ind.ROE)
	}
	if ind.AssetTurnover == nil || *ind.AssetTurnover != 1.5 {
		t.Fatalf("expected asset turnover 1.5, got %v", ind.AssetTurnover)
	}
}

func TestIndicatorsMissingInventoryDefaultsZero(t *testing.T) {
	s := NewHealthScorer()
	balance := annualTable(map[string]float64{
		"Current Assets":      150,
		"Current Liabilities": 100,
	})

	ind := s.Indicators(models.InfoRecord{}, annualTable(nil), balance)

	if ind.QuickRatio == nil || *ind.QuickRatio != 1.5 {
		t.Fatalf("expected quick ratio 1.5 with zero inventory, got %v", ind.QuickRatio)
	}
}

func TestAssessCategoryScores(t *testing.T) {
	s := NewHealthScorer()
	ind := models.HealthIndicators{
		CurrentRatio: fp(2.5),
		QuickRatio:   fp(1.6),
		DebtToEquity: fp(1.5),
		DebtToAssets: fp(0.7),
		ROE:          fp(0.25),
		ROA:          fp(0.12),
		ProfitMargin: fp(0.22),
	}

	a := s.Assess(ind)

	if a.CategoryScores.Liquidity != 100 {
		t.Fatalf("expected liquidity 100, got %v", a.CategoryScores.Liquidity)
	}
	if a.CategoryScores.Leverage != 20 {
		t.Fatalf("expected leverage 20, got %v", a.CategoryScores.Leverage)
	}
	if a.CategoryScores.Profitability != 90 {
		t.Fatalf("expected profitability 90, got %v", a.CategoryScores.Profitability)
	}
	if a.CategoryScores.Efficiency != 50 {
		t.Fatalf("expected efficiency 50 when turnover missing, got %v", a.CategoryScores.Efficiency)
	}
	if a.OverallScore != 65.0 {
		t.Fatalf("expected overall 65.0, got %v", a.OverallScore)
	}
}

func TestAssessRiskAndStrengthAnnotations(t *testing.T) {
	s := NewHealthScorer()
	a := s.Assess(models.HealthIndicators{
		CurrentRatio: fp(2.5),
		QuickRatio:   fp(1.6),
		DebtToEquity: fp(1.5),
		DebtToAssets: fp(0.7),
		ROE:          fp(0.25),
		ROA:          fp(0.12),
		ProfitMargin: fp(0.22),
	})

	wantStrengths := []string{"Strong liquidity position", "Strong profitability metrics"}
	if len(a.Strengths) != len(wantStrengths) {
		t.Fatalf("expected strengths %v, got %v", wantStrengths, a.Strengths)
	}
	for i, w := range wantStrengths {
		if a.Strengths[i] != w {
			t.Fatalf("strength %d: expected %q, got %q", i, w, a.Strengths[i])
		}
	}
	if len(a.RiskFactors) != 1 || a.RiskFactors[0] != "High debt levels - financial leverage risk" {
		t.Fatalf("unexpected risk factors: %v", a.RiskFactors)
	}
}

func TestAssessNoIndicators(t *testing.T) {
	s := NewHealthScorer()
	a := s.Assess(models.HealthIndicators{})

	// Liquidity, leverage and profitability score 0; efficiency defaults
	// to the neutral 50.
	if a.OverallScore != 12.5 {
		t.Fatalf("expected overall 12.5, got %v", a.OverallScore)
	}
	if len(a.RiskFactors) != 3 {
		t.Fatalf("expected 3 risk factors, got %v", a.RiskFactors)
	}
}

func TestAsPercentNormalizesFractions(t *testing.T) {
	if v := asPercent(0.18); v != 18 {
		t.Fatalf("expected fraction scaled to 18, got %v", v)
	}
	if v := asPercent(18); v != 18 {
		t.Fatalf("expected whole percentage kept at 18, got %v", v)
	}
}
