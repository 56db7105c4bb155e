package analytics

import (
	"testing"
	"time"

	"FinSight/internal/domain/models"
)

func quarterlyTable(row string, values []float64) *models.StatementTable {
	cols := make([]models.PeriodColumn, len(values))
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	for i := range cols {
		cols[i] = models.PeriodColumn{End: end.AddDate(0, -3*i, 0)}
	}
	t := models.NewStatementTable(cols)
	for col, v := range values {
		t.SetCell(row, col, v)
	}
	return t
}

func TestDetectFlagsSpike(t *testing.T) {
	d := NewAnomalyDetector()
	table := quarterlyTable("Total Revenue", []float64{150, 100, 102, 98, 101})

	anomalies := d.Detect(table, 8, models.SensitivityMedium)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d: %+v", len(anomalies), anomalies)
	}

	a := anomalies[0]
	if a.Metric != "Total Revenue" || a.Type != "spike" || a.Severity != "medium" {
		t.Fatalf("unexpected anomaly: %+v", a)
	}
	if a.ZScore != 1.78 {
		t.Fatalf("expected z-score 1.78, got %v", a.ZScore)
	}
	if a.LatestValue != 150 || a.HistoricalMean != 110.2 {
		t.Fatalf("unexpected values: latest %v mean %v", a.LatestValue, a.HistoricalMean)
	}
}

func TestDetectLowSensitivityIgnoresModerateDeviation(t *testing.T) {
	d := NewAnomalyDetector()
	table := quarterlyTable("Total Revenue", []float64{150, 100, 102, 98, 101})

	if anomalies := d.Detect(table, 8, models.SensitivityLow); len(anomalies) != 0 {
		t.Fatalf("expected no anomalies at low sensitivity, got %+v", anomalies)
	}
}

func TestDetectFlatSeriesNotFlagged(t *testing.T) {
	d := NewAnomalyDetector()
	table := quarterlyTable("Net Income", []float64{100, 100, 100, 100, 100})

	if anomalies := d.Detect(table, 8, models.SensitivityHigh); len(anomalies) != 0 {
		t.Fatalf("zero variance must not flag, got %+v", anomalies)
	}
}

func TestDetectDrop(t *testing.T) {
	d := NewAnomalyDetector()
	table := quarterlyTable("Net Income", []float64{50, 100, 102, 98, 101})

	anomalies := d.Detect(table, 8, models.SensitivityHigh)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %+v", anomalies)
	}
	if anomalies[0].Type != "drop" {
		t.Fatalf("expected drop, got %s", anomalies[0].Type)
	}
}

func TestDetectSkipsShortHistory(t *testing.T) {
	d := NewAnomalyDetector()
	table := quarterlyTable("Total Revenue", []float64{500, 100, 100})

	if anomalies := d.Detect(table, 8, models.SensitivityHigh); len(anomalies) != 0 {
		t.Fatalf("fewer than 4 observations must be skipped, got %+v", anomalies)
	}
}

func TestDetectEmptyTable(t *testing.T) {
	d := NewAnomalyDetector()
	anomalies := d.Detect(models.NewStatementTable(nil), 8, models.SensitivityMedium)
	if anomalies == nil || len(anomalies) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", anomalies)
	}
}

func TestClampLookback(t *testing.T) {
	cases := [][2]int{{1, 4}, {4, 4}, {12, 12}, {25, 20}}
	for _, c := range cases {
		if got := ClampLookback(c[0]); got != c[1] {
			t.Fatalf("ClampLookback(%d): expected %d, got %d", c[0], c[1], got)
		}
	}
}
