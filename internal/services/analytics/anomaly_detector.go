package analytics

import (
	"math"

	"FinSight/internal/domain/models"
)

// Line items screened for unusual quarter-over-quarter deviations.
var anomalyMetrics = []string{
	"Total Revenue",
	"Net Income",
	"Operating Income",
	"Gross Profit",
	"Total Operating Expenses",
}

// AnomalyDetector flags statistically unusual movements in quarterly
// statement line items using z-scores over a trailing window.
type AnomalyDetector struct{}

func NewAnomalyDetector() *AnomalyDetector { return &AnomalyDetector{} }

// ClampLookback bounds the trailing window to a sane range.
func ClampLookback(periods int) int {
	if periods < 4 {
		return 4
	}
	if periods > 20 {
		return 20
	}
	return periods
}

// Detect screens the quarterly income statement, comparing the most recent
// value of each line item against its trailing distribution. Metrics with
// fewer than four observations are skipped.
func (d *AnomalyDetector) Detect(quarterly *models.StatementTable, lookback int, sensitivity models.Sensitivity) []models.Anomaly {
	anomalies := []models.Anomaly{}
	if quarterly.Empty() {
		return anomalies
	}

	threshold := sensitivity.Threshold()
	lookback = ClampLookback(lookback)

	for _, metric := range anomalyMetrics {
		values := observations(quarterly, metric, lookback)
		if len(values) < 4 {
			continue
		}

		mean, std := meanStd(values)
		latest := values[0]

		z := 0.0
		if std != 0 {
			z = math.Abs(latest-mean) / std
		}
		if z <= threshold {
			continue
		}

		kind := "drop"
		if latest > mean {
			kind = "spike"
		}
		severity := "medium"
		if z > 2 {
			severity = "high"
		}
		anomalies = append(anomalies, models.Anomaly{
			Metric:         metric,
			Type:           kind,
			ZScore:         round2(z),
			LatestValue:    latest,
			HistoricalMean: round2(mean),
			Severity:       severity,
		})
	}
	return anomalies
}

// observations collects finite values for a row, most recent first.
func observations(t *models.StatementTable, row string, limit int) []float64 {
	n := t.NumPeriods()
	if n > limit {
		n = limit
	}
	values := make([]float64, 0, n)
	for col := 0; col < n; col++ {
		if v, ok := t.Value(row, col); ok {
			values = append(values, v)
		}
	}
	return values
}

// meanStd returns the mean and sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return mean, math.Sqrt(variance)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
