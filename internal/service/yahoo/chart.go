package yahoo

import (
	"context"
	"strings"
	"time"

	"FinSight/internal/domain/models"
)

// chartRanges maps caller period names to chart API range values.
var chartRanges = map[string]string{
	"1M": "1mo",
	"3M": "3mo",
	"6M": "6mo",
	"1Y": "1y",
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// History returns daily close prices for a period ("1M", "3M", "6M", "1Y"),
// oldest first. Unknown periods default to three months.
func (c *Client) History(ctx context.Context, symbol, period string) (*models.PriceSeries, error) {
	rng, ok := chartRanges[strings.ToUpper(period)]
	if !ok {
		rng = "3mo"
	}

	var out chartResponse
	err := c.get(ctx, "history", "/v8/finance/chart/"+symbol,
		map[string]string{"range": rng, "interval": "1d"}, &out)
	if err != nil {
		return nil, err
	}

	if len(out.Chart.Result) == 0 {
		return &models.PriceSeries{}, nil
	}
	result := out.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return &models.PriceSeries{}, nil
	}

	closes := result.Indicators.Quote[0].Close
	series := &models.PriceSeries{Points: make([]models.PricePoint, 0, len(closes))}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series.Points = append(series.Points, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	return series, nil
}
