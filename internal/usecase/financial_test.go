package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"FinSight/internal/domain/models"
	"FinSight/internal/service/cache"
	"FinSight/internal/service/fetch"
	applogger "FinSight/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordUpstreamCall(string, string)  {}
func (nopMetrics) RecordCache(string)                 {}
func (nopMetrics) RecordLLMTurn(string)               {}
func (nopMetrics) RecordToolExecution(string, string) {}
func (nopMetrics) RecordLatency(string, float64)      {}

type fakeMarket struct {
	info    models.InfoRecord
	infoErr error

	income      *models.StatementTable
	incomeErr   error
	balance     *models.StatementTable
	cashFlow    *models.StatementTable
	ttmIncome   *models.StatementTable
	ttmCashFlow *models.StatementTable

	qIncome   *models.StatementTable
	qCashFlow *models.StatementTable
	qBalance  *models.StatementTable

	earningsHistory  models.KeyedTable
	priceTargets     models.InfoRecord
	earningsEstimate models.KeyedTable
	revenueEstimate  models.KeyedTable
	growthEstimates  models.KeyedTable

	series *models.PriceSeries
}

func (m *fakeMarket) Info(context.Context, string) (models.InfoRecord, error) {
	return m.info, m.infoErr
}

func (m *fakeMarket) IncomeStatement(context.Context, string) (*models.StatementTable, error) {
	return m.income, m.incomeErr
}

func (m *fakeMarket) BalanceSheet(context.Context, string) (*models.StatementTable, error) {
	return m.balance, nil
}

func (m *fakeMarket) CashFlow(context.Context, string) (*models.StatementTable, error) {
	return m.cashFlow, nil
}

func (m *fakeMarket) TTMIncomeStatement(context.Context, string) (*models.StatementTable, error) {
	return m.ttmIncome, nil
}

func (m *fakeMarket) TTMCashFlow(context.Context, string) (*models.StatementTable, error) {
	return m.ttmCashFlow, nil
}

func (m *fakeMarket) QuarterlyFinancials(context.Context, string) (*models.StatementTable, error) {
	return m.qIncome, nil
}

func (m *fakeMarket) QuarterlyCashFlow(context.Context, string) (*models.StatementTable, error) {
	return m.qCashFlow, nil
}

func (m *fakeMarket) QuarterlyBalanceSheet(context.Context, string) (*models.StatementTable, error) {
	return m.qBalance, nil
}

func (m *fakeMarket) EarningsHistory(context.Context, string) (models.KeyedTable, error) {
	return m.earningsHistory, nil
}

func (m *fakeMarket) AnalystPriceTargets(context.Context, string) (models.InfoRecord, error) {
	return m.priceTargets, nil
}

func (m *fakeMarket) EarningsEstimate(context.Context, string) (models.KeyedTable, error) {
	return m.earningsEstimate, nil
}

func (m *fakeMarket) RevenueEstimate(context.Context, string) (models.KeyedTable, error) {
	return m.revenueEstimate, nil
}

func (m *fakeMarket) GrowthEstimates(context.Context, string) (models.KeyedTable, error) {
	return m.growthEstimates, nil
}

func (m *fakeMarket) History(context.Context, string, string) (*models.PriceSeries, error) {
	return m.series, nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestFinancial(t *testing.T, market *fakeMarket) *Financial {
	t.Helper()
	wrapper := fetch.NewWrapper(cache.NewMemory(300*time.Second, 100), nopMetrics{}, testLogger(t), fetch.Config{
		MaxRetries: 1,
		BaseDelay:  time.Nanosecond,
		JitterMin:  time.Nanosecond,
		JitterMax:  2 * time.Nanosecond,
	})
	u := NewFinancial(market, wrapper, testLogger(t))
	u.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return u
}

func statementWith(rows map[string]float64) *models.StatementTable {
	t := models.NewStatementTable([]models.PeriodColumn{
		{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	})
	for row, v := range rows {
		t.SetCell(row, 0, v)
	}
	return t
}

func fullInfo() models.InfoRecord {
	return models.InfoRecord{
		"longName":               "Apple Inc.",
		"currency":               "USD",
		"exchange":               "NMS",
		"marketCap":              3.0e12,
		"enterpriseValue":        3.1e12,
		"totalStockholderEquity": 5.0e11,
		"currentPrice":           230.0,
		"grossMargins":           0.5,
		"trailingPE":             32.0,
	}
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestInfoRequiresMinimumFields(t *testing.T) {
	u := newTestFinancial(t, &fakeMarket{
		info: models.InfoRecord{"symbol": "XX", "currency": "USD"},
	})

	_, err := u.Info(context.Background(), "XX")
	if !fetch.IsNotFound(err) {
		t.Fatalf("expected not-found for sparse info, got %v", err)
	}
}

func TestInfoErrorPropagates(t *testing.T) {
	u := newTestFinancial(t, &fakeMarket{
		infoErr: fetch.NewError(fetch.KindTimeout, "info", errors.New("deadline exceeded")),
	})

	_, err := u.Snapshot(context.Background(), "AAPL", false)
	if !fetch.IsTimeout(err) {
		t.Fatalf("expected timeout to propagate, got %v", err)
	}
}

func TestBasicInfo(t *testing.T) {
	u := newTestFinancial(t, &fakeMarket{info: fullInfo()})

	basic, err := u.BasicInfo(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if basic.Symbol != "AAPL" {
		t.Fatalf("expected uppercased symbol, got %s", basic.Symbol)
	}
	if basic.Name == nil || *basic.Name != "Apple Inc." {
		t.Fatalf("unexpected name: %v", basic.Name)
	}
	if basic.CurrentPrice == nil || *basic.CurrentPrice != 230.0 {
		t.Fatalf("unexpected price: %v", basic.CurrentPrice)
	}
	if basic.PERatio == nil || *basic.PERatio != 32.0 {
		t.Fatalf("unexpected PE: %v", basic.PERatio)
	}
}

func TestSnapshotSourcePriority(t *testing.T) {
	market := &fakeMarket{
		info:        fullInfo(),
		ttmIncome:   statementWith(map[string]float64{"Total Revenue": 4.0e11, "Net Income": 1.0e11}),
		income:      statementWith(map[string]float64{"Total Revenue": 3.9e11, "Net Income": 0.9e11}),
		ttmCashFlow: statementWith(map[string]float64{"Operating Cash Flow": 1.2e11}),
		balance: statementWith(map[string]float64{
			"Total Assets":              4.0e11,
			"Total Debt":                1.1e11,
			"Cash And Cash Equivalents": 3.0e10,
		}),
		priceTargets: models.InfoRecord{
			"mean": 250.0, "high": 300.0, "low": 200.0, "recommendation": "buy",
		},
		earningsEstimate: models.KeyedTable{
			"Current Year": {"avg": 7.1},
			"Next Year":    {"avg": 7.9},
		},
		growthEstimates: models.KeyedTable{
			"Next Year": {"growth": 0.12},
		},
	}
	u := newTestFinancial(t, market)

	snap, err := u.Snapshot(context.Background(), "aapl", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Symbol != "AAPL" {
		t.Fatalf("expected AAPL, got %s", snap.Symbol)
	}
	if snap.TotalRevenue == nil || *snap.TotalRevenue != 4.0e11 {
		t.Fatalf("trailing twelve months revenue must win, got %v", snap.TotalRevenue)
	}
	if snap.NetIncome == nil || *snap.NetIncome != 1.0e11 {
		t.Fatalf("unexpected net income: %v", snap.NetIncome)
	}
	if snap.OperatingCashFlow == nil || *snap.OperatingCashFlow != 1.2e11 {
		t.Fatalf("unexpected operating cash flow: %v", snap.OperatingCashFlow)
	}
	if snap.NetDebt == nil || *snap.NetDebt != 8.0e10 {
		t.Fatalf("unexpected net debt: %v", snap.NetDebt)
	}
	if snap.ROE == nil || !almost(*snap.ROE, 20.0) {
		t.Fatalf("unexpected ROE: %v", snap.ROE)
	}
	if snap.ROA == nil || !almost(*snap.ROA, 25.0) {
		t.Fatalf("unexpected ROA: %v", snap.ROA)
	}
	if snap.EVRevenue == nil || !almost(*snap.EVRevenue, 7.75) {
		t.Fatalf("unexpected EV/Revenue: %v", snap.EVRevenue)
	}
	if snap.GrossMargin == nil || !almost(*snap.GrossMargin, 50.0) {
		t.Fatalf("unexpected gross margin: %v", snap.GrossMargin)
	}
	if snap.AnalystPriceTarget == nil || *snap.AnalystPriceTarget != 250.0 {
		t.Fatalf("unexpected price target: %v", snap.AnalystPriceTarget)
	}
	if snap.AnalystRating == nil || *snap.AnalystRating != "buy" {
		t.Fatalf("unexpected rating: %v", snap.AnalystRating)
	}
	if snap.EarningsGrowthEstimate == nil || !almost(*snap.EarningsGrowthEstimate, 12.0) {
		t.Fatalf("unexpected growth estimate: %v", snap.EarningsGrowthEstimate)
	}

	wantSources := []string{
		"info", "ttm_income_stmt", "ttm_cashflow", "income_stmt",
		"analyst_price_targets", "earnings_estimate", "growth_estimates",
	}
	if len(snap.DataSourcesUsed) != len(wantSources) {
		t.Fatalf("expected sources %v, got %v", wantSources, snap.DataSourcesUsed)
	}
	for i, s := range wantSources {
		if snap.DataSourcesUsed[i] != s {
			t.Fatalf("source %d: expected %s, got %s", i, s, snap.DataSourcesUsed[i])
		}
	}

	if snap.DataSource != "upstream" {
		t.Fatalf("unexpected data source: %s", snap.DataSource)
	}
	if snap.APIStatus["financial_statements"] != "enhanced" {
		t.Fatalf("expected enhanced statements, got %s", snap.APIStatus["financial_statements"])
	}
	if snap.APIStatus["quarterly_data"] != "limited" {
		t.Fatalf("expected limited quarterly data, got %s", snap.APIStatus["quarterly_data"])
	}
	if snap.APIStatus["analyst_data"] != "success" {
		t.Fatalf("expected analyst data success, got %s", snap.APIStatus["analyst_data"])
	}
}

func TestSnapshotEarningsHistoryFallback(t *testing.T) {
	market := &fakeMarket{
		info: fullInfo(),
		earningsHistory: models.KeyedTable{
			"2024Q4": {"epsActual": 2.4},
			"2025Q1": {"epsEstimate": 2.5},
		},
	}
	u := newTestFinancial(t, market)

	snap, err := u.Snapshot(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No statement data: net income degrades to the most recent reported
	// earnings figure, estimate when actual is absent.
	if snap.NetIncome == nil || *snap.NetIncome != 2.5 {
		t.Fatalf("unexpected net income fallback: %v", snap.NetIncome)
	}
	if snap.APIStatus["financial_statements"] != "limited" {
		t.Fatalf("expected limited statements, got %s", snap.APIStatus["financial_statements"])
	}
}

func TestSnapshotDegradedSourcesTolerated(t *testing.T) {
	market := &fakeMarket{
		info:      fullInfo(),
		incomeErr: fetch.NewError(fetch.KindTransient, "income_statement", errors.New("bad gateway")),
	}
	u := newTestFinancial(t, market)

	snap, err := u.Snapshot(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("statement failures must degrade, got %v", err)
	}
	if snap.MarketCap == nil || *snap.MarketCap != 3.0e12 {
		t.Fatalf("unexpected market cap: %v", snap.MarketCap)
	}
	if snap.APIStatus["analyst_data"] != "unavailable" {
		t.Fatalf("expected analyst data unavailable, got %s", snap.APIStatus["analyst_data"])
	}
}

func TestSnapshotIncludesQuarterly(t *testing.T) {
	qIncome := models.NewStatementTable([]models.PeriodColumn{
		{End: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	})
	qIncome.SetCell("Total Revenue", 0, 110)
	qIncome.SetCell("Total Revenue", 1, 100)

	u := newTestFinancial(t, &fakeMarket{info: fullInfo(), qIncome: qIncome})

	snap, err := u.Snapshot(context.Background(), "AAPL", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.QuarterlyRevenue) != 2 {
		t.Fatalf("expected 2 quarterly records, got %d", len(snap.QuarterlyRevenue))
	}
	if g := snap.QuarterlyRevenue[1].GrowthQoQ["revenue"]; g != -9.09 {
		t.Fatalf("expected QoQ growth -9.09, got %v", g)
	}
	if snap.APIStatus["quarterly_data"] != "success" {
		t.Fatalf("expected quarterly data success, got %s", snap.APIStatus["quarterly_data"])
	}
	last := snap.DataSourcesUsed[len(snap.DataSourcesUsed)-1]
	if last != "quarterly_financials" {
		t.Fatalf("expected quarterly source recorded, got %v", snap.DataSourcesUsed)
	}
}

func TestQuarterlyTrendsNotFound(t *testing.T) {
	u := newTestFinancial(t, &fakeMarket{info: fullInfo()})

	_, err := u.QuarterlyTrends(context.Background(), "AAPL", 8)
	if !fetch.IsNotFound(err) {
		t.Fatalf("expected not-found when no quarterly data, got %v", err)
	}
}

func TestQuarterlyTrends(t *testing.T) {
	qIncome := models.NewStatementTable([]models.PeriodColumn{
		{End: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	})
	qIncome.SetCell("Total Revenue", 0, 110)
	qIncome.SetCell("Total Revenue", 1, 100)

	u := newTestFinancial(t, &fakeMarket{info: fullInfo(), qIncome: qIncome})

	trends, err := u.QuarterlyTrends(context.Background(), "aapl", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trends.Symbol != "AAPL" {
		t.Fatalf("expected AAPL, got %s", trends.Symbol)
	}
	if trends.QuartersAnalyzed != 8 {
		t.Fatalf("quarters analyzed must cap at 8, got %d", trends.QuartersAnalyzed)
	}
	revenue, ok := trends.Trends["revenue_trends"]
	if !ok || len(revenue) != 2 {
		t.Fatalf("expected revenue trend records, got %v", trends.Trends)
	}
	if _, ok := trends.Trends["cash_flow_trends"]; ok {
		t.Fatal("absent statements must not produce trend keys")
	}
	if trends.Insights.RevenueGrowth.Trend != "stable" {
		t.Fatalf("expected stable insight, got %s", trends.Insights.RevenueGrowth.Trend)
	}
}

func TestHistory(t *testing.T) {
	series := &models.PriceSeries{Points: []models.PricePoint{
		{Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Close: 110},
	}}
	u := newTestFinancial(t, &fakeMarket{info: fullInfo(), series: series})

	got, err := u.History(context.Background(), "AAPL", "1M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	perf, ok := got.Performance()
	if !ok || !almost(perf, 10.0) {
		t.Fatalf("unexpected performance: %v (%v)", perf, ok)
	}
}
