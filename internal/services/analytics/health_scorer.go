package analytics

import (
	"math"

	"FinSight/internal/domain/models"
)

// HealthScorer turns raw financial ratios into a 0-100 stability view
// across liquidity, leverage, profitability and efficiency.
type HealthScorer struct{}

func NewHealthScorer() *HealthScorer { return &HealthScorer{} }

// Indicators derives the raw ratio inputs from the latest annual balance
// sheet, income statement and the scalar info record.
func (s *HealthScorer) Indicators(info models.InfoRecord, income, balance *models.StatementTable) models.HealthIndicators {
	var ind models.HealthIndicators

	currentAssets := latest(balance, "Current Assets")
	currentLiabilities := latest(balance, "Current Liabilities")
	if currentAssets != nil && currentLiabilities != nil && *currentLiabilities != 0 {
		v := *currentAssets / *currentLiabilities
		ind.CurrentRatio = &v

		inventory := 0.0
		if inv := latest(balance, "Inventory"); inv != nil {
			inventory = *inv
		}
		q := (*currentAssets - inventory) / *currentLiabilities
		ind.QuickRatio = &q
	}

	totalDebt := latest(balance, "Total Debt")
	if equity := latest(balance, "Stockholders Equity"); totalDebt != nil && equity != nil && *equity != 0 {
		v := *totalDebt / *equity
		ind.DebtToEquity = &v
	}
	totalAssets := latest(balance, "Total Assets")
	if totalDebt != nil && totalAssets != nil && *totalAssets != 0 {
		v := *totalDebt / *totalAssets
		ind.DebtToAssets = &v
	}

	if v, ok := info.Float("returnOnEquity"); ok {
		ind.ROE = &v
	}
	if v, ok := info.Float("returnOnAssets"); ok {
		ind.ROA = &v
	}
	if v, ok := info.Float("profitMargins"); ok {
		ind.ProfitMargin = &v
	}

	if revenue := latest(income, "Total Revenue"); revenue != nil && totalAssets != nil && *totalAssets != 0 {
		v := *revenue / *totalAssets
		ind.AssetTurnover = &v
	}

	return ind
}

// Assess scores the indicators and annotates risk factors and strengths.
func (s *HealthScorer) Assess(ind models.HealthIndicators) *models.HealthAssessment {
	liquidity := scoreLiquidity(ind.CurrentRatio, ind.QuickRatio)
	leverage := scoreLeverage(ind.DebtToEquity, ind.DebtToAssets)
	profitability := scoreProfitability(ind.ROE, ind.ROA, ind.ProfitMargin)
	efficiency := scoreEfficiency(ind.AssetTurnover)

	assessment := &models.HealthAssessment{
		OverallScore: round1((liquidity + leverage + profitability + efficiency) / 4),
		CategoryScores: models.CategoryScores{
			Liquidity:     round1(liquidity),
			Leverage:      round1(leverage),
			Profitability: round1(profitability),
			Efficiency:    round1(efficiency),
		},
		KeyIndicators: ind,
		RiskFactors:   []string{},
		Strengths:     []string{},
	}

	if liquidity < 60 {
		assessment.RiskFactors = append(assessment.RiskFactors, "Low liquidity - potential cash flow issues")
	} else if liquidity > 80 {
		assessment.Strengths = append(assessment.Strengths, "Strong liquidity position")
	}
	if leverage < 60 {
		assessment.RiskFactors = append(assessment.RiskFactors, "High debt levels - financial leverage risk")
	} else if leverage > 80 {
		assessment.Strengths = append(assessment.Strengths, "Conservative debt management")
	}
	if profitability < 60 {
		assessment.RiskFactors = append(assessment.RiskFactors, "Below-average profitability")
	} else if profitability > 80 {
		assessment.Strengths = append(assessment.Strengths, "Strong profitability metrics")
	}

	return assessment
}

func scoreLiquidity(currentRatio, quickRatio *float64) float64 {
	score := 0.0
	if currentRatio != nil {
		switch {
		case *currentRatio >= 2.0:
			score += 50
		case *currentRatio >= 1.5:
			score += 35
		case *currentRatio >= 1.0:
			score += 20
		default:
			score += 10
		}
	}
	if quickRatio != nil {
		switch {
		case *quickRatio >= 1.5:
			score += 50
		case *quickRatio >= 1.0:
			score += 35
		case *quickRatio >= 0.8:
			score += 20
		default:
			score += 10
		}
	}
	return math.Min(score, 100)
}

func scoreLeverage(debtToEquity, debtToAssets *float64) float64 {
	score := 0.0
	if debtToEquity != nil {
		switch {
		case *debtToEquity <= 0.3:
			score += 50
		case *debtToEquity <= 0.6:
			score += 35
		case *debtToEquity <= 1.0:
			score += 20
		default:
			score += 10
		}
	}
	if debtToAssets != nil {
		switch {
		case *debtToAssets <= 0.2:
			score += 50
		case *debtToAssets <= 0.4:
			score += 35
		case *debtToAssets <= 0.6:
			score += 20
		default:
			score += 10
		}
	}
	return math.Min(score, 100)
}

func scoreProfitability(roe, roa, profitMargin *float64) float64 {
	score := 0.0
	if roe != nil {
		switch pct := asPercent(*roe); {
		case pct >= 20:
			score += 35
		case pct >= 15:
			score += 25
		case pct >= 10:
			score += 15
		default:
			score += 5
		}
	}
	if roa != nil {
		switch pct := asPercent(*roa); {
		case pct >= 15:
			score += 35
		case pct >= 10:
			score += 25
		case pct >= 5:
			score += 15
		default:
			score += 5
		}
	}
	if profitMargin != nil {
		switch pct := asPercent(*profitMargin); {
		case pct >= 20:
			score += 30
		case pct >= 10:
			score += 20
		case pct >= 5:
			score += 10
		default:
			score += 5
		}
	}
	return math.Min(score, 100)
}

func scoreEfficiency(assetTurnover *float64) float64 {
	if assetTurnover == nil {
		return 50
	}
	switch {
	case *assetTurnover >= 2.0:
		return 100
	case *assetTurnover >= 1.5:
		return 80
	case *assetTurnover >= 1.0:
		return 60
	case *assetTurnover >= 0.5:
		return 40
	default:
		return 20
	}
}

// asPercent normalizes ratios reported as fractions.
func asPercent(v float64) float64 {
	if v < 1 {
		return v * 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func latest(t *models.StatementTable, row string) *float64 {
	if v, ok := t.Latest(row); ok {
		return &v
	}
	return nil
}
