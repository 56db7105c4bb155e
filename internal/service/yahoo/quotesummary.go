package yahoo

import (
	"context"
	"fmt"

	"FinSight/internal/domain/models"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  any                         `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) quoteSummary(ctx context.Context, op, symbol, modules string) (map[string]map[string]any, error) {
	var out quoteSummaryResponse
	err := c.getWithCrumb(ctx, op, "/v10/finance/quoteSummary/"+symbol,
		map[string]string{"modules": modules}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	return out.QuoteSummary.Result[0], nil
}

// Info returns the company profile and summary statistics as one flat
// record, merging the price, summary, financial-data, key-statistics and
// profile modules.
func (c *Client) Info(ctx context.Context, symbol string) (models.InfoRecord, error) {
	const op = "info"
	result, err := c.quoteSummary(ctx, op, symbol,
		"price,summaryDetail,financialData,defaultKeyStatistics,assetProfile")
	if err != nil {
		return nil, err
	}

	info := make(models.InfoRecord)
	for _, module := range []string{"price", "summaryDetail", "financialData", "defaultKeyStatistics", "assetProfile"} {
		for key, value := range result[module] {
			if v, ok := raw(value); ok {
				info[key] = v
				continue
			}
			switch t := value.(type) {
			case string:
				if t != "" {
					info[key] = t
				}
			case bool:
				info[key] = t
			}
		}
	}
	return info, nil
}

// EarningsHistory returns recent quarters keyed by quarter date, each with
// actual and estimated EPS.
func (c *Client) EarningsHistory(ctx context.Context, symbol string) (models.KeyedTable, error) {
	const op = "earnings_history"
	result, err := c.quoteSummary(ctx, op, symbol, "earningsHistory")
	if err != nil {
		return nil, err
	}

	history, _ := result["earningsHistory"]["history"].([]any)
	table := make(models.KeyedTable, len(history))
	for _, item := range history {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		quarter := fmtString(entry["quarter"])
		if quarter == "" {
			continue
		}
		row := make(models.InfoRecord)
		for src, dst := range map[string]string{
			"epsActual":       "epsActual",
			"epsEstimate":     "epsEstimate",
			"epsDifference":   "epsDifference",
			"surprisePercent": "surprisePercent",
		} {
			if v, ok := raw(entry[src]); ok {
				row[dst] = v
			}
		}
		if len(row) > 0 {
			table[quarter] = row
		}
	}
	return table, nil
}

// AnalystPriceTargets returns the current price target summary.
func (c *Client) AnalystPriceTargets(ctx context.Context, symbol string) (models.InfoRecord, error) {
	const op = "analyst_price_targets"
	result, err := c.quoteSummary(ctx, op, symbol, "financialData")
	if err != nil {
		return nil, err
	}

	fd := result["financialData"]
	targets := make(models.InfoRecord)
	for src, dst := range map[string]string{
		"currentPrice":            "current",
		"targetMeanPrice":         "mean",
		"targetMedianPrice":       "median",
		"targetHighPrice":         "high",
		"targetLowPrice":          "low",
		"numberOfAnalystOpinions": "numberOfAnalysts",
	} {
		if v, ok := raw(fd[src]); ok {
			targets[dst] = v
		}
	}
	if s, ok := fd["recommendationKey"].(string); ok && s != "" {
		targets["recommendation"] = s
	}
	return targets, nil
}

// trendPeriods maps Yahoo earnings-trend period codes to row names.
var trendPeriods = map[string]string{
	"0q":  "Current Quarter",
	"+1q": "Next Quarter",
	"0y":  "Current Year",
	"+1y": "Next Year",
}

func (c *Client) earningsTrend(ctx context.Context, op, symbol string) ([]any, error) {
	result, err := c.quoteSummary(ctx, op, symbol, "earningsTrend")
	if err != nil {
		return nil, err
	}
	trend, _ := result["earningsTrend"]["trend"].([]any)
	return trend, nil
}

func (c *Client) estimateTable(ctx context.Context, op, symbol, section string) (models.KeyedTable, error) {
	trend, err := c.earningsTrend(ctx, op, symbol)
	if err != nil {
		return nil, err
	}

	table := make(models.KeyedTable)
	for _, item := range trend {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		period, _ := entry["period"].(string)
		name, known := trendPeriods[period]
		if !known {
			continue
		}
		est, ok := entry[section].(map[string]any)
		if !ok {
			continue
		}
		row := make(models.InfoRecord)
		for key, value := range est {
			if v, ok := raw(value); ok {
				row[key] = v
			}
		}
		if len(row) > 0 {
			table[name] = row
		}
	}
	return table, nil
}

// EarningsEstimate returns per-period EPS estimates (avg, low, high, growth,
// numberOfAnalysts) keyed by period name.
func (c *Client) EarningsEstimate(ctx context.Context, symbol string) (models.KeyedTable, error) {
	return c.estimateTable(ctx, "earnings_estimate", symbol, "earningsEstimate")
}

// RevenueEstimate returns per-period revenue estimates keyed by period name.
func (c *Client) RevenueEstimate(ctx context.Context, symbol string) (models.KeyedTable, error) {
	return c.estimateTable(ctx, "revenue_estimate", symbol, "revenueEstimate")
}

// GrowthEstimates returns per-period growth readings keyed by period name.
func (c *Client) GrowthEstimates(ctx context.Context, symbol string) (models.KeyedTable, error) {
	const op = "growth_estimates"
	trend, err := c.earningsTrend(ctx, op, symbol)
	if err != nil {
		return nil, err
	}

	table := make(models.KeyedTable)
	for _, item := range trend {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		period, _ := entry["period"].(string)
		name, known := trendPeriods[period]
		if !known {
			continue
		}
		if v, ok := raw(entry["growth"]); ok {
			table[name] = models.InfoRecord{"growth": v}
		}
	}
	return table, nil
}

// fmtString extracts the "fmt" member of a formatted value, used for dates.
func fmtString(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["fmt"].(string); ok {
		return s
	}
	if r, ok := m["raw"].(float64); ok {
		return fmt.Sprintf("%.0f", r)
	}
	return ""
}
