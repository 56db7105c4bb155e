package usecase

import "FinSight/internal/domain/models"

// fieldSpec binds one canonical field name to its ordered upstream row name
// candidates; the first present-and-finite value wins.
type fieldSpec struct {
	name    string
	aliases []string
}

// maxPeriods caps how many reporting periods are extracted per statement.
const maxPeriods = 8

var revenueFields = []fieldSpec{
	{name: "revenue", aliases: []string{"Total Revenue", "Operating Revenue"}},
	{name: "gross_profit", aliases: []string{"Gross Profit"}},
	{name: "operating_income", aliases: []string{"Operating Income", "EBIT"}},
	{name: "net_income", aliases: []string{
		"Net Income",
		"Net Income From Continuing Operation Net Minority Interest",
		"Net Income From Continuing And Discontinued Operation",
		"Normalized Income",
	}},
	{name: "ebitda", aliases: []string{"EBITDA", "Normalized EBITDA"}},
	{name: "total_expenses", aliases: []string{"Total Expenses"}},
	{name: "research_development", aliases: []string{"Research And Development"}},
	{name: "selling_general_admin", aliases: []string{"Selling General And Administration"}},
}

var cashFlowFields = []fieldSpec{
	{name: "operating_cash_flow", aliases: []string{"Operating Cash Flow", "Cash Flow From Continuing Operating Activities"}},
	{name: "free_cash_flow", aliases: []string{"Free Cash Flow", "Free Cash Flow From Operations"}},
	{name: "capital_expenditures", aliases: []string{"Capital Expenditures", "Capital Expenditure"}},
	{name: "cash_dividends_paid", aliases: []string{"Cash Dividends Paid"}},
	{name: "repurchase_of_capital_stock", aliases: []string{"Repurchase Of Capital Stock"}},
}

var balanceSheetFields = []fieldSpec{
	{name: "total_assets", aliases: []string{"Total Assets"}},
	{name: "total_debt", aliases: []string{"Total Debt", "Net Debt"}},
	{name: "total_cash", aliases: []string{"Cash And Cash Equivalents", "Cash"}},
	{name: "stockholder_equity", aliases: []string{"Stockholders Equity", "Total Stockholder Equity", "Ordinary Shares Number"}},
	{name: "working_capital", aliases: []string{"Working Capital"}},
}

// firstFinite resolves one field at one period through its alias chain.
func firstFinite(table *models.StatementTable, aliases []string, col int) (float64, bool) {
	for _, alias := range aliases {
		if v, ok := table.Value(alias, col); ok {
			return v, true
		}
	}
	return 0, false
}

// extractPeriods builds canonical period records from a statement table,
// most recent first, up to maxPeriods.
func extractPeriods(table *models.StatementTable, fields []fieldSpec) []models.PeriodRecord {
	if table.Empty() {
		return nil
	}

	n := table.NumPeriods()
	if n > maxPeriods {
		n = maxPeriods
	}

	records := make([]models.PeriodRecord, 0, n)
	for col := 0; col < n; col++ {
		rec := models.PeriodRecord{
			Period:  table.Columns[col].ISO(),
			Metrics: make(map[string]float64, len(fields)),
		}
		for _, f := range fields {
			if v, ok := firstFinite(table, f.aliases, col); ok {
				rec.Metrics[f.name] = v
			}
		}
		records = append(records, rec)
	}
	return records
}
