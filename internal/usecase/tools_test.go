package usecase

import (
	"context"
	"testing"
	"time"

	"FinSight/internal/domain/models"
	"FinSight/internal/services/analytics"
)

func newTestToolbox(t *testing.T, market *fakeMarket) *Toolbox {
	t.Helper()
	return NewToolbox(newTestFinancial(t, market), analytics.NewHealthScorer(), analytics.NewAnomalyDetector(), testLogger(t))
}

func quarterlyStatements() (*models.StatementTable, *models.StatementTable, *models.StatementTable) {
	cols := []models.PeriodColumn{
		{End: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	income := models.NewStatementTable(cols)
	income.SetCell("Total Revenue", 0, 110)
	income.SetCell("Total Revenue", 1, 100)
	income.SetCell("Net Income", 0, 25)

	balance := models.NewStatementTable(cols)
	balance.SetCell("Total Debt", 0, 60)
	balance.SetCell("Cash And Cash Equivalents", 0, 40)

	cashflow := models.NewStatementTable(cols)
	cashflow.SetCell("Free Cash Flow", 0, 30)
	cashflow.SetCell("Free Cash Flow", 1, 28)
	return income, balance, cashflow
}

func TestFetchQuarterlyData(t *testing.T) {
	income, balance, cashflow := quarterlyStatements()
	tb := newTestToolbox(t, &fakeMarket{
		info:      fullInfo(),
		qIncome:   income,
		qBalance:  balance,
		qCashFlow: cashflow,
	})

	result, err := tb.fetchQuarterlyData(context.Background(), map[string]any{
		"ticker": "AAPL", "quarters": float64(4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["success"] != true || result["quarters"] != 2 {
		t.Fatalf("unexpected result: %v", result)
	}

	data := result["data"].([]map[string]any)
	first := data[0]
	if first["period"] != "2025-03-31" {
		t.Fatalf("unexpected period: %v", first["period"])
	}
	if first["revenue"] != 110.0 || first["net_income"] != 25.0 {
		t.Fatalf("unexpected income metrics: %v", first)
	}
	if first["free_cash_flow"] != 30.0 || first["total_debt"] != 60.0 {
		t.Fatalf("unexpected cross-statement metrics: %v", first)
	}

	// Second quarter has no balance data; requested metrics stay present
	// with nil values.
	second := data[1]
	if v, ok := second["total_debt"]; !ok || v != nil {
		t.Fatalf("expected nil total_debt for second quarter, got %v (%v)", v, ok)
	}
	if second["revenue"] != 100.0 {
		t.Fatalf("unexpected second quarter revenue: %v", second)
	}
}

func TestFetchQuarterlyDataCustomMetrics(t *testing.T) {
	income, _, _ := quarterlyStatements()
	tb := newTestToolbox(t, &fakeMarket{info: fullInfo(), qIncome: income})

	result, err := tb.fetchQuarterlyData(context.Background(), map[string]any{
		"ticker":  "AAPL",
		"metrics": []any{"revenue", "unknown_metric"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := result["data"].([]map[string]any)[0]
	if first["revenue"] != 110.0 {
		t.Fatalf("unexpected revenue: %v", first)
	}
	if v, ok := first["unknown_metric"]; !ok || v != nil {
		t.Fatalf("unknown metrics must be present and nil, got %v (%v)", v, ok)
	}
}

func TestCalculateFinancialRatios(t *testing.T) {
	balance := statementWith(map[string]float64{
		"Current Assets":      200,
		"Current Liabilities": 100,
		"Total Debt":          60,
		"Stockholders Equity": 120,
	})
	info := fullInfo()
	info["returnOnEquity"] = 0.25
	info["industry"] = "Consumer Electronics"
	tb := newTestToolbox(t, &fakeMarket{info: info, balance: balance})

	result, err := tb.calculateFinancialRatios(context.Background(), map[string]any{
		"ticker": "AAPL",
		"ratios": []any{"P/E", "ROE", "Current_Ratio", "Debt_to_Equity", "Unknown"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ratios := result["ratios"].(map[string]any)
	if ratios["P/E"] != 32.0 || ratios["ROE"] != 0.25 {
		t.Fatalf("unexpected info ratios: %v", ratios)
	}
	if ratios["Current_Ratio"] != 2.0 || ratios["Debt_to_Equity"] != 0.5 {
		t.Fatalf("unexpected balance ratios: %v", ratios)
	}
	if v, ok := ratios["Unknown"]; !ok || v != nil {
		t.Fatalf("unsupported ratios must be present and nil, got %v (%v)", v, ok)
	}

	industry := result["industry_comparison"].(map[string]any)
	if industry["P/E_industry_avg"] != "N/A" {
		t.Fatalf("expected industry placeholder, got %v", industry)
	}
}

func TestCompareWithPeers(t *testing.T) {
	info := fullInfo()
	info["totalRevenue"] = 4.0e11
	tb := newTestToolbox(t, &fakeMarket{info: info})

	result, err := tb.compareWithPeers(context.Background(), map[string]any{
		"ticker":  "AAPL",
		"peers":   []any{"MSFT"},
		"metrics": []any{"market_cap", "revenue"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comparison := result["comparison_data"].(map[string]map[string]any)
	if len(comparison) != 2 {
		t.Fatalf("expected 2 companies, got %v", comparison)
	}
	if comparison["AAPL"]["market_cap"] != 3.0e12 {
		t.Fatalf("expected marketCap mapped to market_cap, got %v", comparison["AAPL"])
	}
	if comparison["AAPL"]["revenue"] != 4.0e11 {
		t.Fatalf("expected totalRevenue mapped to revenue, got %v", comparison["AAPL"])
	}

	rankings := result["rankings"].(map[string]map[string]int)
	ranks := rankings["market_cap"]
	if len(ranks) != 2 || ranks["AAPL"]+ranks["MSFT"] != 3 {
		t.Fatalf("unexpected rankings: %v", rankings)
	}
}

func TestGetAnalystConsensus(t *testing.T) {
	tb := newTestToolbox(t, &fakeMarket{
		info: fullInfo(),
		priceTargets: models.InfoRecord{
			"mean": 250.0, "high": 300.0, "low": 200.0,
			"numberOfAnalysts": 40.0, "recommendation": "buy",
		},
		earningsEstimate: models.KeyedTable{
			"Current Year": {"avg": 7.1},
			"Next Year":    {"avg": 7.9},
		},
	})

	result, err := tb.getAnalystConsensus(context.Background(), map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	consensus := result["consensus"].(map[string]any)
	if consensus["current_price"] != 230.0 {
		t.Fatalf("unexpected current price: %v", consensus["current_price"])
	}
	targets := consensus["analyst_targets"].(map[string]any)
	if targets["mean_target"] != 250.0 || targets["number_of_analysts"] != 40.0 {
		t.Fatalf("unexpected targets: %v", targets)
	}
	recs := consensus["recommendations"].(map[string]any)
	if recs["recommendation"] != "buy" {
		t.Fatalf("unexpected recommendations: %v", recs)
	}
	estimates := consensus["earnings_estimates"].(map[string]any)
	if estimates["current_year_avg"] != 7.1 || estimates["next_year_avg"] != 7.9 {
		t.Fatalf("unexpected estimates: %v", estimates)
	}
}

func TestFetchMarketContext(t *testing.T) {
	info := fullInfo()
	info["sector"] = "Technology"
	info["industry"] = "Consumer Electronics"
	series := &models.PriceSeries{Points: []models.PricePoint{
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Close: 112},
	}}
	tb := newTestToolbox(t, &fakeMarket{info: info, series: series})

	result, err := tb.fetchMarketContext(context.Background(), map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["sector"] != "Technology" || result["industry"] != "Consumer Electronics" {
		t.Fatalf("unexpected classification: %v", result)
	}

	indices := result["market_indices"].(map[string]any)
	sp, ok := indices["S&P 500"].(map[string]any)
	if !ok || sp["performance"] != 12.0 || sp["timeframe"] != "6M" {
		t.Fatalf("unexpected index data: %v", indices)
	}

	sector := result["sector_performance"].(map[string]any)
	if sector["etf_ticker"] != "XLK" || sector["performance"] != 12.0 {
		t.Fatalf("unexpected sector performance: %v", sector)
	}
}

func TestDetectFinancialAnomaliesNoData(t *testing.T) {
	tb := newTestToolbox(t, &fakeMarket{info: fullInfo()})

	result, err := tb.detectFinancialAnomalies(context.Background(), map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["success"] != false || result["error"] != "No quarterly data available" {
		t.Fatalf("unexpected result: %v", result)
	}
	if _, ok := result["tool_used"]; ok {
		t.Fatal("no-data failure carries no tool_used field")
	}
}

func TestDetectFinancialAnomalies(t *testing.T) {
	cols := make([]models.PeriodColumn, 5)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	for i := range cols {
		cols[i] = models.PeriodColumn{End: end.AddDate(0, -3*i, 0)}
	}
	income := models.NewStatementTable(cols)
	for col, v := range []float64{150, 100, 102, 98, 101} {
		income.SetCell("Total Revenue", col, v)
	}
	tb := newTestToolbox(t, &fakeMarket{info: fullInfo(), qIncome: income})

	result, err := tb.detectFinancialAnomalies(context.Background(), map[string]any{
		"ticker": "AAPL", "sensitivity": "medium",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["success"] != true || result["anomalies_detected"] != 1 {
		t.Fatalf("unexpected result: %v", result)
	}
	if result["sensitivity_used"] != "medium" {
		t.Fatalf("unexpected sensitivity: %v", result["sensitivity_used"])
	}
}

func TestAssessFinancialHealthTool(t *testing.T) {
	info := fullInfo()
	info["returnOnEquity"] = 0.25
	info["returnOnAssets"] = 0.12
	info["profitMargins"] = 0.22
	balance := statementWith(map[string]float64{
		"Current Assets":      250,
		"Current Liabilities": 100,
		"Inventory":           90,
		"Total Debt":          150,
		"Stockholders Equity": 100,
		"Total Assets":        500,
	})
	tb := newTestToolbox(t, &fakeMarket{info: info, balance: balance})

	result, err := tb.assessFinancialHealth(context.Background(), map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assessment, ok := result["assessment"].(*models.HealthAssessment)
	if !ok {
		t.Fatalf("expected assessment, got %v", result)
	}
	// CR 2.5 and QR 1.6 score 100; D/E 1.5 and D/A 0.3 score 45; the
	// profitability trio scores 90; turnover is absent so efficiency is 50.
	if assessment.OverallScore != 71.3 {
		t.Fatalf("unexpected overall score: %v", assessment.OverallScore)
	}
}

func TestToolboxNamesSorted(t *testing.T) {
	tb := newTestToolbox(t, &fakeMarket{info: fullInfo()})
	names := tb.Names()
	if len(names) != 7 {
		t.Fatalf("expected 7 tools, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	if _, ok := tb.Lookup("fetch_quarterly_data"); !ok {
		t.Fatal("expected fetch_quarterly_data registered")
	}
	if _, ok := tb.Lookup("nope"); ok {
		t.Fatal("unexpected tool lookup hit")
	}
}
