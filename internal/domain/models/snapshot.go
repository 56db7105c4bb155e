package models

import (
	"sort"

	"github.com/goccy/go-json"
)

// PeriodRecord is one reporting period normalized to canonical field names.
// Metrics only ever contains finite values; absent fields are simply not
// present. GrowthQoQ/GrowthYoY are filled in by the trend calculator.
type PeriodRecord struct {
	Period    string
	Metrics   map[string]float64
	GrowthQoQ map[string]float64
	GrowthYoY map[string]float64
}

// MarshalJSON flattens Metrics into the period object so the wire shape is
// {"period": ..., "revenue": ..., "growth_qoq": {...}} rather than nesting
// the metric map.
func (p PeriodRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Metrics)+3)
	out["period"] = p.Period
	for k, v := range p.Metrics {
		out[k] = v
	}
	if len(p.GrowthQoQ) > 0 {
		out["growth_qoq"] = p.GrowthQoQ
	}
	if len(p.GrowthYoY) > 0 {
		out["growth_yoy"] = p.GrowthYoY
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON; non-numeric extras are dropped.
func (p *PeriodRecord) UnmarshalJSON(b []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Metrics = make(map[string]float64)
	for k, v := range raw {
		switch k {
		case "period":
			if err := json.Unmarshal(v, &p.Period); err != nil {
				return err
			}
		case "growth_qoq":
			if err := json.Unmarshal(v, &p.GrowthQoQ); err != nil {
				return err
			}
		case "growth_yoy":
			if err := json.Unmarshal(v, &p.GrowthYoY); err != nil {
				return err
			}
		default:
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				p.Metrics[k] = f
			}
		}
	}
	return nil
}

// MetricNames returns the canonical field names present in this record,
// sorted for deterministic iteration.
func (p PeriodRecord) MetricNames() []string {
	names := make([]string, 0, len(p.Metrics))
	for k := range p.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CompanySnapshot is the canonical per-symbol output: identity, scalar
// metrics (nil = absent, never NaN), quarterly sequences and source
// bookkeeping.
type CompanySnapshot struct {
	Symbol      string  `json:"symbol"`
	CompanyName *string `json:"company_name,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Exchange    *string `json:"exchange,omitempty"`

	// Overview
	MarketCap         *float64 `json:"market_cap,omitempty"`
	EnterpriseValue   *float64 `json:"enterprise_value,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	FloatShares       *float64 `json:"float_shares,omitempty"`

	// Performance (TTM)
	TotalRevenue    *float64 `json:"total_revenue,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	GrossProfit     *float64 `json:"gross_profit,omitempty"`
	OperatingIncome *float64 `json:"operating_income,omitempty"`
	EBITDA          *float64 `json:"ebitda,omitempty"`
	NetIncome       *float64 `json:"net_income,omitempty"`
	EPSTrailing     *float64 `json:"eps_ttm,omitempty"`
	EPSForward      *float64 `json:"eps_forward,omitempty"`

	// Balance sheet
	TotalCash   *float64 `json:"total_cash,omitempty"`
	TotalDebt   *float64 `json:"total_debt,omitempty"`
	NetDebt     *float64 `json:"net_debt,omitempty"`
	TotalAssets *float64 `json:"total_assets,omitempty"`
	TotalEquity *float64 `json:"total_equity,omitempty"`
	BookValue   *float64 `json:"book_value,omitempty"`

	// Cash flow
	OperatingCashFlow   *float64 `json:"operating_cash_flow,omitempty"`
	FreeCashFlow        *float64 `json:"free_cash_flow,omitempty"`
	CapitalExpenditures *float64 `json:"capital_expenditures,omitempty"`

	// Valuation ratios
	PERatio   *float64 `json:"pe_ratio,omitempty"`
	ForwardPE *float64 `json:"forward_pe,omitempty"`
	PBRatio   *float64 `json:"pb_ratio,omitempty"`
	PSRatio   *float64 `json:"ps_ratio,omitempty"`
	PEGRatio  *float64 `json:"peg_ratio,omitempty"`
	EVRevenue *float64 `json:"ev_revenue,omitempty"`
	EVEBITDA  *float64 `json:"ev_ebitda,omitempty"`

	// Profitability
	ROE             *float64 `json:"roe,omitempty"`
	ROA             *float64 `json:"roa,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"`

	// Other
	Beta          *float64 `json:"beta,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	PayoutRatio   *float64 `json:"payout_ratio,omitempty"`

	// Price
	CurrentPrice     *float64 `json:"current_price,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`

	// Quarterly sequences (most recent first, up to 8 periods)
	QuarterlyRevenue      []PeriodRecord `json:"quarterly_revenue,omitempty"`
	QuarterlyCashFlow     []PeriodRecord `json:"quarterly_cash_flow,omitempty"`
	QuarterlyBalanceSheet []PeriodRecord `json:"quarterly_balance_sheet,omitempty"`

	// Analyst estimates and targets
	AnalystPriceTarget         *float64 `json:"analyst_price_target,omitempty"`
	AnalystRating              *string  `json:"analyst_rating,omitempty"`
	EarningsEstimateCurrentYr  *float64 `json:"earnings_estimate_current_year,omitempty"`
	EarningsEstimateNextYr     *float64 `json:"earnings_estimate_next_year,omitempty"`
	RevenueEstimateCurrentYr   *float64 `json:"revenue_estimate_current_year,omitempty"`
	RevenueEstimateNextYr      *float64 `json:"revenue_estimate_next_year,omitempty"`
	EarningsGrowthEstimate     *float64 `json:"earnings_growth_estimate,omitempty"`
	RevenueGrowthEstimate      *float64 `json:"revenue_growth_estimate,omitempty"`

	DataSourcesUsed []string          `json:"data_sources_used"`
	DataSource      string            `json:"data_source"`
	LastUpdated     string            `json:"last_updated"`
	APIStatus       map[string]string `json:"api_status"`
}

// BasicInfo is the fast-path identity subset of a snapshot.
type BasicInfo struct {
	Symbol       string   `json:"symbol"`
	Name         *string  `json:"name,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
	MarketCap    *float64 `json:"market_cap,omitempty"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	Exchange     *string  `json:"exchange,omitempty"`
	LastUpdated  string   `json:"last_updated"`
}

// QuarterlyTrends is the /quarterly-trends response body.
type QuarterlyTrends struct {
	Symbol           string                    `json:"symbol"`
	QuartersAnalyzed int                       `json:"quarters_analyzed"`
	Trends           map[string][]PeriodRecord `json:"trends"`
	Insights         TrendInsights             `json:"insights"`
	LastUpdated      string                    `json:"last_updated"`
}

// TrendInsights summarizes trend direction per statement area.
type TrendInsights struct {
	RevenueGrowth  RevenueInsight       `json:"revenue_growth"`
	Profitability  ProfitabilityInsight `json:"profitability"`
	CashGeneration CashFlowInsight      `json:"cash_generation"`
	BalanceSheet   BalanceSheetInsight  `json:"balance_sheet"`
}

// RevenueInsight carries the latest revenue growth readings.
type RevenueInsight struct {
	Trend     string   `json:"trend"`
	LatestQoQ *float64 `json:"latest_qoq"`
	LatestYoY *float64 `json:"latest_yoy"`
}

// ProfitabilityInsight labels margin direction.
type ProfitabilityInsight struct {
	Trend           string `json:"trend"`
	MarginDirection string `json:"margin_direction"`
}

// CashFlowInsight labels the free-cash-flow direction.
type CashFlowInsight struct {
	Trend    string `json:"trend"`
	FCFTrend string `json:"fcf_trend"`
}

// BalanceSheetInsight labels debt direction.
type BalanceSheetInsight struct {
	Trend     string `json:"trend"`
	DebtTrend string `json:"debt_trend"`
}

// SnapshotEvent is the payload published to Kafka / archived to ClickHouse
// after a snapshot is assembled.
type SnapshotEvent struct {
	Symbol     string           `json:"symbol"`
	AssembledAt string          `json:"assembled_at"`
	Snapshot   *CompanySnapshot `json:"snapshot"`
}
