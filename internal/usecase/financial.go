package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"FinSight/internal/domain/models"
	"FinSight/internal/domain/repository"
	"FinSight/internal/service/fetch"
	applogger "FinSight/pkg/logger"
)

// Financial aggregates upstream data into canonical snapshots and trend
// analyses.
type Financial struct {
	market  repository.MarketData
	fetcher *fetch.Wrapper
	log     *applogger.Logger
	now     func() time.Time
}

// NewFinancial creates the financial aggregation usecase.
func NewFinancial(market repository.MarketData, fetcher *fetch.Wrapper, log *applogger.Logger) *Financial {
	return &Financial{
		market:  market,
		fetcher: fetcher,
		log:     log,
		now:     time.Now,
	}
}

// secondary runs a fetch whose failure degrades to absent data; only rate
// limiting propagates so the surface can answer 429.
func secondary[T fetch.Emptier](ctx context.Context, u *Financial, symbol, op string, call func(context.Context, string) (T, error)) (T, error) {
	v, err := fetch.Do(ctx, u.fetcher, symbol, op, func(ctx context.Context) (T, error) {
		return call(ctx, symbol)
	})
	if err != nil {
		if fetch.IsRateLimited(err) {
			return v, err
		}
		u.log.Warn("source unavailable",
			applogger.String("symbol", symbol),
			applogger.String("operation", op),
			applogger.Error(err),
		)
		var zero T
		return zero, nil
	}
	return v, nil
}

// Info returns the scalar info record for a symbol, erroring if the symbol
// is unresolvable.
func (u *Financial) Info(ctx context.Context, symbol string) (models.InfoRecord, error) {
	info, err := fetch.Do(ctx, u.fetcher, symbol, "info", func(ctx context.Context) (models.InfoRecord, error) {
		return u.market.Info(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	if len(info) < 5 {
		return nil, fetch.NewError(fetch.KindNotFound, "info", fmt.Errorf("no data found for symbol %s", symbol))
	}
	return info, nil
}

// BasicInfo returns the fast-path identity subset for a symbol.
func (u *Financial) BasicInfo(ctx context.Context, symbol string) (*models.BasicInfo, error) {
	info, err := u.Info(ctx, symbol)
	if err != nil {
		return nil, err
	}

	basic := &models.BasicInfo{
		Symbol:      strings.ToUpper(symbol),
		LastUpdated: u.now().Format(time.RFC3339),
	}
	if name, ok := info.String("longName"); ok {
		basic.Name = &name
	} else if name, ok := info.String("shortName"); ok {
		basic.Name = &name
	}
	basic.CurrentPrice = orElse(infoFloat(info, "currentPrice"), infoFloat(info, "regularMarketPrice"))
	basic.MarketCap = infoFloat(info, "marketCap")
	basic.PERatio = infoFloat(info, "trailingPE")
	if currency, ok := info.String("currency"); ok {
		basic.Currency = &currency
	}
	if exchange, ok := info.String("exchange"); ok {
		basic.Exchange = &exchange
	}
	return basic, nil
}

// Snapshot builds the canonical company snapshot, merging TTM, annual,
// estimate and info-level sources in priority order.
func (u *Financial) Snapshot(ctx context.Context, symbol string, includeQuarterly bool) (*models.CompanySnapshot, error) {
	info, err := u.Info(ctx, symbol)
	if err != nil {
		return nil, err
	}

	incomeStmt, err := secondary(ctx, u, symbol, "income_statement", u.market.IncomeStatement)
	if err != nil {
		return nil, err
	}
	balanceSheet, err := secondary(ctx, u, symbol, "balance_sheet", u.market.BalanceSheet)
	if err != nil {
		return nil, err
	}
	cashFlow, err := secondary(ctx, u, symbol, "cash_flow", u.market.CashFlow)
	if err != nil {
		return nil, err
	}
	ttmIncome, err := secondary(ctx, u, symbol, "ttm_income_statement", u.market.TTMIncomeStatement)
	if err != nil {
		return nil, err
	}
	ttmCashFlow, err := secondary(ctx, u, symbol, "ttm_cash_flow", u.market.TTMCashFlow)
	if err != nil {
		return nil, err
	}
	earningsHistory, err := secondary(ctx, u, symbol, "earnings_history", u.market.EarningsHistory)
	if err != nil {
		return nil, err
	}
	earningsEstimate, err := secondary(ctx, u, symbol, "earnings_estimate", u.market.EarningsEstimate)
	if err != nil {
		return nil, err
	}
	revenueEstimate, err := secondary(ctx, u, symbol, "revenue_estimate", u.market.RevenueEstimate)
	if err != nil {
		return nil, err
	}
	priceTargets, err := secondary(ctx, u, symbol, "analyst_price_targets", u.market.AnalystPriceTargets)
	if err != nil {
		return nil, err
	}
	growthEstimates, err := secondary(ctx, u, symbol, "growth_estimates", u.market.GrowthEstimates)
	if err != nil {
		return nil, err
	}

	// Headline metrics: TTM > annual statement > estimate > info field.
	latestRevenue := orElse(
		tableLatest(ttmIncome, "Total Revenue"),
		tableLatest(incomeStmt, "Total Revenue"),
		keyedFloat(revenueEstimate, "Current Year", "avg"),
		infoFloat(info, "totalRevenue"),
	)
	latestNetIncome := orElse(
		tableLatest(ttmIncome, "Net Income"),
		tableLatest(incomeStmt, "Net Income"),
		latestEarnings(earningsHistory),
		infoFloat(info, "netIncomeToCommon"),
	)
	latestCashFlow := orElse(
		tableLatest(ttmCashFlow, "Operating Cash Flow"),
		tableLatest(cashFlow, "Operating Cash Flow"),
	)

	latestTotalAssets := tableLatest(balanceSheet, "Total Assets")
	latestTotalDebt := tableLatest(balanceSheet, "Total Debt")
	latestTotalCash := tableLatest(balanceSheet, "Cash And Cash Equivalents")

	snapshot := &models.CompanySnapshot{
		Symbol:      strings.ToUpper(symbol),
		LastUpdated: u.now().Format(time.RFC3339),
	}

	if name, ok := info.String("longName"); ok {
		snapshot.CompanyName = &name
	} else if name, ok := info.String("shortName"); ok {
		snapshot.CompanyName = &name
	}
	if currency, ok := info.String("currency"); ok {
		snapshot.Currency = &currency
	}
	if exchange, ok := info.String("exchange"); ok {
		snapshot.Exchange = &exchange
	}

	// Overview
	snapshot.MarketCap = infoFloat(info, "marketCap")
	snapshot.EnterpriseValue = infoFloat(info, "enterpriseValue")
	snapshot.SharesOutstanding = orElse(infoFloat(info, "sharesOutstanding"), infoFloat(info, "impliedSharesOutstanding"))
	snapshot.FloatShares = infoFloat(info, "floatShares")

	// Performance
	snapshot.TotalRevenue = orElse(latestRevenue, infoFloat(info, "totalRevenue"))
	snapshot.RevenueGrowth = infoFloat(info, "revenueGrowth")
	snapshot.EBITDA = infoFloat(info, "ebitda")
	snapshot.NetIncome = orElse(latestNetIncome, infoFloat(info, "netIncomeToCommon"))
	snapshot.EPSTrailing = infoFloat(info, "trailingEps")
	snapshot.EPSForward = infoFloat(info, "forwardEps")

	// Balance sheet
	snapshot.TotalCash = orElse(latestTotalCash, infoFloat(info, "totalCash"))
	snapshot.TotalDebt = orElse(latestTotalDebt, infoFloat(info, "totalDebt"))
	snapshot.NetDebt = NetDebt(latestTotalDebt, latestTotalCash)
	snapshot.TotalAssets = latestTotalAssets
	snapshot.BookValue = infoFloat(info, "bookValue")

	// Cash flow
	snapshot.OperatingCashFlow = orElse(latestCashFlow, infoFloat(info, "operatingCashflow"))
	snapshot.FreeCashFlow = infoFloat(info, "freeCashflow")

	// Valuation ratios
	snapshot.PERatio = orElse(infoFloat(info, "trailingPE"), infoFloat(info, "forwardPE"))
	snapshot.ForwardPE = infoFloat(info, "forwardPE")
	snapshot.PBRatio = infoFloat(info, "priceToBook")
	snapshot.PSRatio = infoFloat(info, "priceToSalesTrailing12Months")
	snapshot.PEGRatio = infoFloat(info, "pegRatio")
	snapshot.EVRevenue = Ratio(infoFloat(info, "enterpriseValue"), latestRevenue)
	snapshot.EVEBITDA = Ratio(infoFloat(info, "enterpriseValue"), infoFloat(info, "ebitda"))

	// Profitability
	snapshot.ROE = Percent(Ratio(latestNetIncome, infoFloat(info, "totalStockholderEquity")))
	snapshot.ROA = Percent(Ratio(latestNetIncome, latestTotalAssets))
	snapshot.GrossMargin = Percent(infoFloat(info, "grossMargins"))
	snapshot.OperatingMargin = Percent(infoFloat(info, "operatingMargins"))
	snapshot.NetMargin = Percent(infoFloat(info, "profitMargins"))

	// Other
	snapshot.Beta = infoFloat(info, "beta")
	snapshot.DividendYield = Percent(infoFloat(info, "dividendYield"))
	snapshot.PayoutRatio = Percent(infoFloat(info, "payoutRatio"))

	// Price
	snapshot.CurrentPrice = orElse(
		infoFloat(info, "currentPrice"),
		infoFloat(info, "regularMarketPrice"),
		infoFloat(info, "previousClose"),
	)
	snapshot.FiftyTwoWeekHigh = infoFloat(info, "fiftyTwoWeekHigh")
	snapshot.FiftyTwoWeekLow = infoFloat(info, "fiftyTwoWeekLow")

	// Analyst estimates and targets
	snapshot.AnalystPriceTarget = orElse(keyedInfoFloat(priceTargets, "mean"), keyedInfoFloat(priceTargets, "current"))
	if rating, ok := priceTargets.String("recommendation"); ok {
		snapshot.AnalystRating = &rating
	}
	snapshot.EarningsEstimateCurrentYr = keyedFloat(earningsEstimate, "Current Year", "avg")
	snapshot.EarningsEstimateNextYr = keyedFloat(earningsEstimate, "Next Year", "avg")
	snapshot.RevenueEstimateCurrentYr = keyedFloat(revenueEstimate, "Current Year", "avg")
	snapshot.RevenueEstimateNextYr = keyedFloat(revenueEstimate, "Next Year", "avg")
	snapshot.EarningsGrowthEstimate = Percent(keyedFloat(growthEstimates, "Next Year", "growth"))
	snapshot.RevenueGrowthEstimate = Percent(keyedFloat(growthEstimates, "Next Year", "growth"))

	// Source bookkeeping
	sources := []string{"info"}
	if !ttmIncome.Empty() {
		sources = append(sources, "ttm_income_stmt")
	}
	if !ttmCashFlow.Empty() {
		sources = append(sources, "ttm_cashflow")
	}
	if !incomeStmt.Empty() {
		sources = append(sources, "income_stmt")
	}
	if !earningsHistory.Empty() {
		sources = append(sources, "earnings_history")
	}
	if !priceTargets.Empty() {
		sources = append(sources, "analyst_price_targets")
	}
	if !earningsEstimate.Empty() {
		sources = append(sources, "earnings_estimate")
	}
	if !revenueEstimate.Empty() {
		sources = append(sources, "revenue_estimate")
	}
	if !growthEstimates.Empty() {
		sources = append(sources, "growth_estimates")
	}

	if includeQuarterly {
		quarterlyIncome, err := secondary(ctx, u, symbol, "quarterly_financials", u.market.QuarterlyFinancials)
		if err != nil {
			return nil, err
		}
		quarterlyCashFlow, err := secondary(ctx, u, symbol, "quarterly_cash_flow", u.market.QuarterlyCashFlow)
		if err != nil {
			return nil, err
		}
		quarterlyBalance, err := secondary(ctx, u, symbol, "quarterly_balance_sheet", u.market.QuarterlyBalanceSheet)
		if err != nil {
			return nil, err
		}

		if !quarterlyIncome.Empty() {
			snapshot.QuarterlyRevenue = applyGrowth(extractPeriods(quarterlyIncome, revenueFields))
			sources = append(sources, "quarterly_financials")
		}
		if !quarterlyCashFlow.Empty() {
			snapshot.QuarterlyCashFlow = applyGrowth(extractPeriods(quarterlyCashFlow, cashFlowFields))
			sources = append(sources, "quarterly_cashflow")
		}
		if !quarterlyBalance.Empty() {
			snapshot.QuarterlyBalanceSheet = applyGrowth(extractPeriods(quarterlyBalance, balanceSheetFields))
			sources = append(sources, "quarterly_balance_sheet")
		}
	}

	snapshot.DataSourcesUsed = sources
	snapshot.DataSource = "upstream"
	snapshot.APIStatus = map[string]string{
		"provider":             "success",
		"financial_statements": statementCoverage(sources),
		"quarterly_data":       label(len(snapshot.QuarterlyRevenue) > 0, "success", "limited"),
		"analyst_data":         label(snapshot.AnalystPriceTarget != nil || snapshot.EarningsEstimateCurrentYr != nil, "success", "unavailable"),
	}

	u.log.Info("snapshot assembled",
		applogger.String("symbol", snapshot.Symbol),
		applogger.Strings("sources", sources),
	)
	return snapshot, nil
}

// QuarterlyTrends builds per-statement trend sequences with growth rates
// and derived insights.
func (u *Financial) QuarterlyTrends(ctx context.Context, symbol string, quarters int) (*models.QuarterlyTrends, error) {
	quarterlyIncome, err := secondary(ctx, u, symbol, "quarterly_financials", u.market.QuarterlyFinancials)
	if err != nil {
		return nil, err
	}
	quarterlyCashFlow, err := secondary(ctx, u, symbol, "quarterly_cash_flow", u.market.QuarterlyCashFlow)
	if err != nil {
		return nil, err
	}
	quarterlyBalance, err := secondary(ctx, u, symbol, "quarterly_balance_sheet", u.market.QuarterlyBalanceSheet)
	if err != nil {
		return nil, err
	}

	if quarterlyIncome.Empty() && quarterlyCashFlow.Empty() && quarterlyBalance.Empty() {
		return nil, fetch.NewError(fetch.KindNotFound, "quarterly_trends",
			fmt.Errorf("no quarterly data found for symbol %s", symbol))
	}

	trends := make(map[string][]models.PeriodRecord)
	if !quarterlyIncome.Empty() {
		trends["revenue_trends"] = applyGrowth(extractPeriods(quarterlyIncome, revenueFields))
	}
	if !quarterlyCashFlow.Empty() {
		trends["cash_flow_trends"] = applyGrowth(extractPeriods(quarterlyCashFlow, cashFlowFields))
	}
	if !quarterlyBalance.Empty() {
		trends["balance_sheet_trends"] = applyGrowth(extractPeriods(quarterlyBalance, balanceSheetFields))
	}

	analyzed := quarters
	if analyzed > maxPeriods {
		analyzed = maxPeriods
	}

	return &models.QuarterlyTrends{
		Symbol:           strings.ToUpper(symbol),
		QuartersAnalyzed: analyzed,
		Trends:           trends,
		Insights:         buildInsights(trends),
		LastUpdated:      u.now().Format(time.RFC3339),
	}, nil
}

// History returns the close price series for a symbol and period.
func (u *Financial) History(ctx context.Context, symbol, period string) (*models.PriceSeries, error) {
	op := "history_" + strings.ToLower(period)
	return fetch.Do(ctx, u.fetcher, symbol, op, func(ctx context.Context) (*models.PriceSeries, error) {
		return u.market.History(ctx, symbol, period)
	})
}

func statementCoverage(sources []string) string {
	for _, s := range sources {
		if strings.Contains(s, "ttm") || strings.Contains(s, "estimate") {
			return "enhanced"
		}
	}
	return "limited"
}

func label(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func infoFloat(info models.InfoRecord, key string) *float64 {
	if v, ok := info.Float(key); ok {
		return &v
	}
	return nil
}

func tableLatest(t *models.StatementTable, row string) *float64 {
	if v, ok := t.Latest(row); ok {
		return &v
	}
	return nil
}

func keyedFloat(t models.KeyedTable, row, field string) *float64 {
	if v, ok := t.Float(row, field); ok {
		return &v
	}
	return nil
}

func keyedInfoFloat(r models.InfoRecord, key string) *float64 {
	if v, ok := r.Float(key); ok {
		return &v
	}
	return nil
}

// latestEarnings returns the most recent reported net income proxy from the
// earnings history, preferring the actual figure over the estimate.
func latestEarnings(history models.KeyedTable) *float64 {
	if history.Empty() {
		return nil
	}
	quarters := make([]string, 0, len(history))
	for q := range history {
		quarters = append(quarters, q)
	}
	sort.Strings(quarters)
	latest := history.Row(quarters[len(quarters)-1])
	if v, ok := latest.Float("epsActual"); ok {
		return &v
	}
	if v, ok := latest.Float("epsEstimate"); ok {
		return &v
	}
	return nil
}
