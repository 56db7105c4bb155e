package usecase

import (
	"context"
	"math"
	"sort"

	"FinSight/internal/domain/models"
	"FinSight/internal/services/analytics"
	applogger "FinSight/pkg/logger"
)

// ToolFunc executes one analysis tool against parsed model arguments. Data
// failures are reported inside the result map; a non-nil error means the
// call could not run at all.
type ToolFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Toolbox is the registry of analysis tools exposed to the model during
// agentic analysis.
type Toolbox struct {
	financial *Financial
	scorer    *analytics.HealthScorer
	detector  *analytics.AnomalyDetector
	log       *applogger.Logger
	registry  map[string]ToolFunc
}

// NewToolbox wires the tool registry over the aggregation usecase.
func NewToolbox(financial *Financial, scorer *analytics.HealthScorer, detector *analytics.AnomalyDetector, log *applogger.Logger) *Toolbox {
	t := &Toolbox{
		financial: financial,
		scorer:    scorer,
		detector:  detector,
		log:       log,
	}
	t.registry = map[string]ToolFunc{
		"fetch_quarterly_data":       t.fetchQuarterlyData,
		"calculate_financial_ratios": t.calculateFinancialRatios,
		"compare_with_peers":         t.compareWithPeers,
		"get_analyst_consensus":      t.getAnalystConsensus,
		"fetch_market_context":       t.fetchMarketContext,
		"detect_financial_anomalies": t.detectFinancialAnomalies,
		"assess_financial_health":    t.assessFinancialHealth,
	}
	return t
}

// Lookup returns the named tool, if registered.
func (t *Toolbox) Lookup(name string) (ToolFunc, bool) {
	fn, ok := t.registry[name]
	return fn, ok
}

// Names returns the registered tool names, sorted.
func (t *Toolbox) Names() []string {
	names := make([]string, 0, len(t.registry))
	for name := range t.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// metricSource maps a canonical metric name to its statement line item.
type metricSource struct {
	row       string
	statement string // income, balance or cashflow
}

var toolMetricSources = map[string]metricSource{
	"revenue":             {row: "Total Revenue", statement: "income"},
	"net_income":          {row: "Net Income", statement: "income"},
	"gross_profit":        {row: "Gross Profit", statement: "income"},
	"operating_income":    {row: "Operating Income", statement: "income"},
	"ebitda":              {row: "EBITDA", statement: "income"},
	"total_debt":          {row: "Total Debt", statement: "balance"},
	"total_cash":          {row: "Cash And Cash Equivalents", statement: "balance"},
	"total_assets":        {row: "Total Assets", statement: "balance"},
	"stockholder_equity":  {row: "Stockholders Equity", statement: "balance"},
	"free_cash_flow":      {row: "Free Cash Flow", statement: "cashflow"},
	"operating_cash_flow": {row: "Operating Cash Flow", statement: "cashflow"},
}

var defaultQuarterlyMetrics = []string{"revenue", "net_income", "free_cash_flow", "total_debt", "total_cash"}

func (t *Toolbox) fetchQuarterlyData(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")
	quarters := argInt(args, "quarters", 8)
	if quarters < 1 {
		quarters = 1
	}
	if quarters > 12 {
		quarters = 12
	}
	metrics := argStrings(args, "metrics")
	if len(metrics) == 0 {
		metrics = defaultQuarterlyMetrics
	}

	income, err := secondary(ctx, t.financial, ticker, "quarterly_financials", t.financial.market.QuarterlyFinancials)
	if err != nil {
		return toolFailure("fetch_quarterly_data", err), nil
	}
	balance, err := secondary(ctx, t.financial, ticker, "quarterly_balance_sheet", t.financial.market.QuarterlyBalanceSheet)
	if err != nil {
		return toolFailure("fetch_quarterly_data", err), nil
	}
	cashflow, err := secondary(ctx, t.financial, ticker, "quarterly_cash_flow", t.financial.market.QuarterlyCashFlow)
	if err != nil {
		return toolFailure("fetch_quarterly_data", err), nil
	}

	byStatement := map[string]*models.StatementTable{
		"income":   income,
		"balance":  balance,
		"cashflow": cashflow,
	}

	n := income.NumPeriods()
	if n > quarters {
		n = quarters
	}
	data := make([]map[string]any, 0, n)
	for col := 0; col < n; col++ {
		date := income.Columns[col].ISO()
		quarter := map[string]any{
			"period": date,
			"date":   date,
		}
		for _, metric := range metrics {
			quarter[metric] = nil
			src, known := toolMetricSources[metric]
			if !known {
				continue
			}
			if v, ok := valueAt(byStatement[src.statement], src.row, date); ok {
				quarter[metric] = v
			}
		}
		data = append(data, quarter)
	}

	return map[string]any{
		"success":   true,
		"ticker":    ticker,
		"quarters":  len(data),
		"data":      data,
		"tool_used": "fetch_quarterly_data",
	}, nil
}

func (t *Toolbox) calculateFinancialRatios(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")
	ratios := argStrings(args, "ratios")
	includeIndustry := argBool(args, "include_industry", true)

	info, err := t.financial.Info(ctx, ticker)
	if err != nil {
		return toolFailure("calculate_financial_ratios", err), nil
	}
	balance, err := secondary(ctx, t.financial, ticker, "balance_sheet", t.financial.market.BalanceSheet)
	if err != nil {
		return toolFailure("calculate_financial_ratios", err), nil
	}

	calculated := make(map[string]any, len(ratios))
	for _, ratio := range ratios {
		calculated[ratio] = nil
		switch ratio {
		case "P/E":
			setIfPresent(calculated, ratio, infoFloat(info, "trailingPE"))
		case "P/B":
			setIfPresent(calculated, ratio, infoFloat(info, "priceToBook"))
		case "ROE":
			setIfPresent(calculated, ratio, infoFloat(info, "returnOnEquity"))
		case "ROA":
			setIfPresent(calculated, ratio, infoFloat(info, "returnOnAssets"))
		case "Current_Ratio":
			setIfPresent(calculated, ratio, Ratio(tableLatest(balance, "Current Assets"), tableLatest(balance, "Current Liabilities")))
		case "Debt_to_Equity":
			setIfPresent(calculated, ratio, Ratio(tableLatest(balance, "Total Debt"), tableLatest(balance, "Stockholders Equity")))
		}
	}

	industryComparison := map[string]any{}
	if _, ok := info.String("industry"); includeIndustry && ok {
		// Benchmark feed not wired yet; report placeholders per ratio.
		for _, ratio := range ratios {
			industryComparison[ratio+"_industry_avg"] = "N/A"
		}
	}

	return map[string]any{
		"success":             true,
		"ticker":              ticker,
		"ratios":              calculated,
		"industry_comparison": industryComparison,
		"tool_used":           "calculate_financial_ratios",
	}, nil
}

func (t *Toolbox) compareWithPeers(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")
	peers := argStrings(args, "peers")
	metrics := argStrings(args, "metrics")

	comparison := make(map[string]map[string]any, len(peers)+1)
	comparison[ticker] = t.companyMetrics(ctx, ticker, metrics)
	for _, peer := range peers {
		comparison[peer] = t.companyMetrics(ctx, peer, metrics)
	}

	return map[string]any{
		"success":         true,
		"target_ticker":   ticker,
		"peers":           peers,
		"comparison_data": comparison,
		"rankings":        peerRankings(comparison, metrics),
		"tool_used":       "compare_with_peers",
	}, nil
}

func (t *Toolbox) companyMetrics(ctx context.Context, ticker string, metrics []string) map[string]any {
	info, err := t.financial.Info(ctx, ticker)
	if err != nil {
		return map[string]any{"ticker": ticker, "error": "Data unavailable"}
	}

	out := map[string]any{"ticker": ticker}
	for _, metric := range metrics {
		key := metric
		switch metric {
		case "market_cap":
			key = "marketCap"
		case "pe_ratio":
			key = "trailingPE"
		case "revenue":
			key = "totalRevenue"
		case "profit_margin":
			key = "profitMargins"
		}
		out[metric] = nil
		if v, ok := info.Float(key); ok {
			out[metric] = v
		}
	}
	return out
}

// peerRankings ranks each metric across companies, highest value first.
func peerRankings(comparison map[string]map[string]any, metrics []string) map[string]map[string]int {
	rankings := make(map[string]map[string]int, len(metrics))
	for _, metric := range metrics {
		type entry struct {
			ticker string
			value  float64
		}
		entries := []entry{}
		for ticker, data := range comparison {
			if v, ok := data[metric].(float64); ok {
				entries = append(entries, entry{ticker: ticker, value: v})
			}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].value > entries[j].value })

		ranks := make(map[string]int, len(entries))
		for i, e := range entries {
			ranks[e.ticker] = i + 1
		}
		rankings[metric] = ranks
	}
	return rankings
}

func (t *Toolbox) getAnalystConsensus(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")

	info, err := t.financial.Info(ctx, ticker)
	if err != nil {
		return toolFailure("get_analyst_consensus", err), nil
	}
	targets, err := secondary(ctx, t.financial, ticker, "analyst_price_targets", t.financial.market.AnalystPriceTargets)
	if err != nil {
		return toolFailure("get_analyst_consensus", err), nil
	}
	estimates, err := secondary(ctx, t.financial, ticker, "earnings_estimate", t.financial.market.EarningsEstimate)
	if err != nil {
		return toolFailure("get_analyst_consensus", err), nil
	}

	consensus := map[string]any{
		"current_price":      nil,
		"analyst_targets":    map[string]any{},
		"recommendations":    map[string]any{},
		"earnings_estimates": map[string]any{},
	}
	if v, ok := info.Float("currentPrice"); ok {
		consensus["current_price"] = v
	}
	if !targets.Empty() {
		analystTargets := map[string]any{
			"mean_target":        nil,
			"high_target":        nil,
			"low_target":         nil,
			"number_of_analysts": nil,
		}
		setIfPresent(analystTargets, "mean_target", keyedInfoFloat(targets, "mean"))
		setIfPresent(analystTargets, "high_target", keyedInfoFloat(targets, "high"))
		setIfPresent(analystTargets, "low_target", keyedInfoFloat(targets, "low"))
		setIfPresent(analystTargets, "number_of_analysts", keyedInfoFloat(targets, "numberOfAnalysts"))
		consensus["analyst_targets"] = analystTargets

		if rec, ok := targets.String("recommendation"); ok {
			consensus["recommendations"] = map[string]any{"recommendation": rec}
		}
	}
	if !estimates.Empty() {
		earningsEstimates := map[string]any{}
		if v, ok := estimates.Float("Current Year", "avg"); ok {
			earningsEstimates["current_year_avg"] = v
		}
		if v, ok := estimates.Float("Next Year", "avg"); ok {
			earningsEstimates["next_year_avg"] = v
		}
		consensus["earnings_estimates"] = earningsEstimates
	}

	return map[string]any{
		"success":   true,
		"ticker":    ticker,
		"consensus": consensus,
		"tool_used": "get_analyst_consensus",
	}, nil
}

var marketIndices = []struct {
	ticker string
	name   string
}{
	{ticker: "^GSPC", name: "S&P 500"},
	{ticker: "^DJI", name: "Dow Jones"},
	{ticker: "^IXIC", name: "NASDAQ"},
}

var sectorETFs = map[string]string{
	"Technology":             "XLK",
	"Healthcare":             "XLV",
	"Financial Services":     "XLF",
	"Consumer Cyclical":      "XLY",
	"Industrials":            "XLI",
	"Energy":                 "XLE",
	"Utilities":              "XLU",
	"Real Estate":            "XLRE",
	"Materials":              "XLB",
	"Consumer Defensive":     "XLP",
	"Communication Services": "XLC",
}

func (t *Toolbox) fetchMarketContext(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")
	includeSector := argBool(args, "include_sector", true)
	timeframe := argString(args, "timeframe", "6M")

	info, err := t.financial.Info(ctx, ticker)
	if err != nil {
		return toolFailure("fetch_market_context", err), nil
	}
	sector := "Unknown"
	if v, ok := info.String("sector"); ok {
		sector = v
	}
	industry := "Unknown"
	if v, ok := info.String("industry"); ok {
		industry = v
	}

	marketData := map[string]any{}
	for _, index := range marketIndices {
		series, err := t.financial.History(ctx, index.ticker, timeframe)
		if err != nil {
			return toolFailure("fetch_market_context", err), nil
		}
		if perf, ok := series.Performance(); ok {
			marketData[index.name] = map[string]any{
				"performance": round2(perf),
				"timeframe":   timeframe,
			}
		}
	}

	sectorPerformance := map[string]any{}
	if etf, ok := sectorETFs[sector]; includeSector && ok {
		series, err := t.financial.History(ctx, etf, timeframe)
		if err != nil {
			return toolFailure("fetch_market_context", err), nil
		}
		if perf, ok := series.Performance(); ok {
			sectorPerformance = map[string]any{
				"sector":      sector,
				"etf_ticker":  etf,
				"performance": round2(perf),
				"timeframe":   timeframe,
			}
		}
	}

	return map[string]any{
		"success":            true,
		"ticker":             ticker,
		"sector":             sector,
		"industry":           industry,
		"market_indices":     marketData,
		"sector_performance": sectorPerformance,
		"tool_used":          "fetch_market_context",
	}, nil
}

func (t *Toolbox) detectFinancialAnomalies(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")
	lookback := argInt(args, "lookback_periods", 12)
	sensitivity := models.Sensitivity(argString(args, "sensitivity", string(models.SensitivityMedium)))

	quarterly, err := secondary(ctx, t.financial, ticker, "quarterly_financials", t.financial.market.QuarterlyFinancials)
	if err != nil {
		return toolFailure("detect_financial_anomalies", err), nil
	}
	if quarterly.Empty() {
		return map[string]any{
			"success": false,
			"error":   "No quarterly data available",
		}, nil
	}

	anomalies := t.detector.Detect(quarterly, lookback, sensitivity)
	return map[string]any{
		"success":            true,
		"ticker":             ticker,
		"anomalies_detected": len(anomalies),
		"anomalies":          anomalies,
		"sensitivity_used":   string(sensitivity),
		"tool_used":          "detect_financial_anomalies",
	}, nil
}

func (t *Toolbox) assessFinancialHealth(ctx context.Context, args map[string]any) (map[string]any, error) {
	ticker := argString(args, "ticker", "")

	info, err := t.financial.Info(ctx, ticker)
	if err != nil {
		return toolFailure("assess_financial_health", err), nil
	}
	income, err := secondary(ctx, t.financial, ticker, "income_statement", t.financial.market.IncomeStatement)
	if err != nil {
		return toolFailure("assess_financial_health", err), nil
	}
	balance, err := secondary(ctx, t.financial, ticker, "balance_sheet", t.financial.market.BalanceSheet)
	if err != nil {
		return toolFailure("assess_financial_health", err), nil
	}

	indicators := t.scorer.Indicators(info, income, balance)
	return map[string]any{
		"success":    true,
		"ticker":     ticker,
		"assessment": t.scorer.Assess(indicators),
		"tool_used":  "assess_financial_health",
	}, nil
}

// valueAt resolves a row value at the period whose end date matches.
func valueAt(t *models.StatementTable, row, date string) (float64, bool) {
	if t.Empty() {
		return 0, false
	}
	for col := range t.Columns {
		if t.Columns[col].ISO() == date {
			return t.Value(row, col)
		}
	}
	return 0, false
}

func toolFailure(tool string, err error) map[string]any {
	return map[string]any{
		"success":   false,
		"error":     err.Error(),
		"tool_used": tool,
	}
}

func setIfPresent(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func argString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return fallback
}

func argBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
