package models

// HealthIndicators are the raw ratio inputs to the health scorer.
// Nil means the indicator could not be computed from available data.
type HealthIndicators struct {
	CurrentRatio  *float64 `json:"current_ratio"`
	QuickRatio    *float64 `json:"quick_ratio"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	DebtToAssets  *float64 `json:"debt_to_assets"`
	ROE           *float64 `json:"roe"`
	ROA           *float64 `json:"roa"`
	ProfitMargin  *float64 `json:"profit_margin"`
	AssetTurnover *float64 `json:"asset_turnover"`
}

// CategoryScores are the four 0-100 health category scores.
type CategoryScores struct {
	Liquidity     float64 `json:"liquidity"`
	Leverage      float64 `json:"leverage"`
	Profitability float64 `json:"profitability"`
	Efficiency    float64 `json:"efficiency"`
}

// HealthAssessment is the full scored health view of a company.
type HealthAssessment struct {
	OverallScore   float64          `json:"overall_score"`
	CategoryScores CategoryScores   `json:"category_scores"`
	KeyIndicators  HealthIndicators `json:"key_indicators"`
	RiskFactors    []string         `json:"risk_factors"`
	Strengths      []string         `json:"strengths"`
}

// Sensitivity selects the anomaly detection threshold in standard
// deviations.
type Sensitivity string

// Recognized sensitivities; unknown values fall back to medium.
const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Threshold returns the z-score cutoff for this sensitivity.
func (s Sensitivity) Threshold() float64 {
	switch s {
	case SensitivityLow:
		return 2.0
	case SensitivityHigh:
		return 1.0
	default:
		return 1.5
	}
}

// Anomaly is one flagged deviation of a line item from its history.
type Anomaly struct {
	Metric         string  `json:"metric"`
	Type           string  `json:"type"` // spike or drop
	ZScore         float64 `json:"z_score"`
	LatestValue    float64 `json:"latest_value"`
	HistoricalMean float64 `json:"historical_mean"`
	Severity       string  `json:"severity"` // high if z-score > 2, else medium
}
