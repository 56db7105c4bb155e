package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"FinSight/internal/domain/models"
)

// Statement line items requested from the fundamentals-timeseries API.
// Names follow the upstream reporting convention; the wire type key is the
// period prefix plus the name with spaces removed.
var (
	incomeRows = []string{
		"Total Revenue",
		"Operating Revenue",
		"Cost Of Revenue",
		"Gross Profit",
		"Operating Income",
		"EBIT",
		"Operating Expense",
		"Total Expenses",
		"Total Operating Expenses",
		"Net Income",
		"Net Income From Continuing Operation Net Minority Interest",
		"Net Income From Continuing And Discontinued Operation",
		"Normalized Income",
		"EBITDA",
		"Normalized EBITDA",
		"Basic EPS",
		"Diluted EPS",
		"Pretax Income",
		"Tax Provision",
		"Research And Development",
		"Selling General And Administration",
	}

	balanceRows = []string{
		"Total Assets",
		"Total Liabilities Net Minority Interest",
		"Stockholders Equity",
		"Total Stockholder Equity",
		"Ordinary Shares Number",
		"Cash And Cash Equivalents",
		"Cash",
		"Current Assets",
		"Current Liabilities",
		"Total Debt",
		"Net Debt",
		"Long Term Debt",
		"Inventory",
		"Accounts Receivable",
		"Accounts Payable",
		"Working Capital",
		"Tangible Book Value",
	}

	cashflowRows = []string{
		"Operating Cash Flow",
		"Cash Flow From Continuing Operating Activities",
		"Free Cash Flow",
		"Free Cash Flow From Operations",
		"Capital Expenditures",
		"Capital Expenditure",
		"Investing Cash Flow",
		"Financing Cash Flow",
		"End Cash Position",
		"Issuance Of Debt",
		"Repayment Of Debt",
		"Repurchase Of Capital Stock",
		"Cash Dividends Paid",
	}
)

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]any `json:"result"`
		Error  any              `json:"error"`
	} `json:"timeseries"`
}

func typeKey(prefix, row string) string {
	return prefix + strings.ReplaceAll(row, " ", "")
}

// statement fetches one statement table for a period prefix (annual,
// quarterly or trailing) and row set.
func (c *Client) statement(ctx context.Context, op, symbol, prefix string, rows []string) (*models.StatementTable, error) {
	types := make([]string, 0, len(rows))
	rowByType := make(map[string]string, len(rows))
	for _, row := range rows {
		key := typeKey(prefix, row)
		types = append(types, key)
		rowByType[key] = row
	}

	now := time.Now()
	span := 6 * 365 * 24 * time.Hour
	if prefix == "quarterly" {
		span = 3 * 365 * 24 * time.Hour
	}

	var out timeseriesResponse
	err := c.get(ctx, op, "/ws/fundamentals-timeseries/v1/finance/timeseries/"+symbol,
		map[string]string{
			"symbol":        symbol,
			"type":          strings.Join(types, ","),
			"period1":       fmt.Sprintf("%d", now.Add(-span).Unix()),
			"period2":       fmt.Sprintf("%d", now.Unix()),
			"merge":         "false",
			"padTimeSeries": "true",
		}, &out)
	if err != nil {
		return nil, err
	}

	// First pass: collect (row, date) -> value and the set of period dates.
	type cell struct {
		row  string
		date string
	}
	values := make(map[cell]float64)
	dateSet := make(map[string]struct{})

	for _, block := range out.Timeseries.Result {
		meta, _ := block["meta"].(map[string]any)
		metaTypes, _ := meta["type"].([]any)
		if len(metaTypes) == 0 {
			continue
		}
		key, _ := metaTypes[0].(string)
		row, known := rowByType[key]
		if !known {
			continue
		}
		points, _ := block[key].([]any)
		for _, p := range points {
			point, ok := p.(map[string]any)
			if !ok {
				continue
			}
			date, _ := point["asOfDate"].(string)
			if date == "" {
				continue
			}
			v, ok := raw(point["reportedValue"])
			if !ok {
				continue
			}
			values[cell{row: row, date: date}] = v
			dateSet[date] = struct{}{}
		}
	}

	if len(dateSet) == 0 {
		return &models.StatementTable{}, nil
	}

	// Most recent period first.
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	cols := make([]models.PeriodColumn, 0, len(dates))
	colIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		end, _ := time.Parse("2006-01-02", d)
		cols = append(cols, models.PeriodColumn{End: end, Label: d})
		colIndex[d] = i
	}

	table := models.NewStatementTable(cols)
	for cl, v := range values {
		table.SetCell(cl.row, colIndex[cl.date], v)
	}
	return table, nil
}

// IncomeStatement returns the annual income statement.
func (c *Client) IncomeStatement(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "income_statement", symbol, "annual", incomeRows)
}

// BalanceSheet returns the annual balance sheet.
func (c *Client) BalanceSheet(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "balance_sheet", symbol, "annual", balanceRows)
}

// CashFlow returns the annual cash flow statement.
func (c *Client) CashFlow(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "cash_flow", symbol, "annual", cashflowRows)
}

// TTMIncomeStatement returns the trailing-twelve-month income statement.
func (c *Client) TTMIncomeStatement(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "ttm_income_statement", symbol, "trailing", incomeRows)
}

// TTMCashFlow returns the trailing-twelve-month cash flow statement.
func (c *Client) TTMCashFlow(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "ttm_cash_flow", symbol, "trailing", cashflowRows)
}

// QuarterlyFinancials returns the quarterly income statement.
func (c *Client) QuarterlyFinancials(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "quarterly_financials", symbol, "quarterly", incomeRows)
}

// QuarterlyCashFlow returns the quarterly cash flow statement.
func (c *Client) QuarterlyCashFlow(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "quarterly_cash_flow", symbol, "quarterly", cashflowRows)
}

// QuarterlyBalanceSheet returns the quarterly balance sheet.
func (c *Client) QuarterlyBalanceSheet(ctx context.Context, symbol string) (*models.StatementTable, error) {
	return c.statement(ctx, "quarterly_balance_sheet", symbol, "quarterly", balanceRows)
}
