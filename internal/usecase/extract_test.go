package usecase

import (
	"testing"
	"time"

	"FinSight/internal/domain/models"
)

func quarterCols(n int) []models.PeriodColumn {
	cols := make([]models.PeriodColumn, n)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	for i := range cols {
		cols[i] = models.PeriodColumn{End: end}
		// last day of the previous quarter
		end = time.Date(end.Year(), end.Month()-2, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}
	return cols
}

func TestExtractPeriodsAliasFallback(t *testing.T) {
	table := models.NewStatementTable(quarterCols(1))
	table.SetCell("Operating Revenue", 0, 500)

	records := extractPeriods(table, revenueFields)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if v := records[0].Metrics["revenue"]; v != 500 {
		t.Fatalf("expected alias fallback to Operating Revenue, got %v", v)
	}
}

func TestExtractPeriodsPrimaryAliasWins(t *testing.T) {
	table := models.NewStatementTable(quarterCols(1))
	table.SetCell("Total Revenue", 0, 1000)
	table.SetCell("Operating Revenue", 0, 500)

	records := extractPeriods(table, revenueFields)
	if v := records[0].Metrics["revenue"]; v != 1000 {
		t.Fatalf("expected Total Revenue to win over Operating Revenue, got %v", v)
	}
}

func TestExtractPeriodsSkipsMissingFields(t *testing.T) {
	table := models.NewStatementTable(quarterCols(2))
	table.SetCell("Total Revenue", 0, 100)
	table.SetCell("Total Revenue", 1, 90)
	table.SetCell("Net Income", 0, 20)

	records := extractPeriods(table, revenueFields)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records[1].Metrics["net_income"]; ok {
		t.Fatal("net_income missing in second period must be absent from metrics")
	}
	if records[0].Period != "2025-06-30" {
		t.Fatalf("expected ISO period 2025-06-30, got %s", records[0].Period)
	}
	if records[1].Period != "2025-03-31" {
		t.Fatalf("expected ISO period 2025-03-31, got %s", records[1].Period)
	}
}

func TestExtractPeriodsCapsPeriods(t *testing.T) {
	table := models.NewStatementTable(quarterCols(12))
	for col := 0; col < 12; col++ {
		table.SetCell("Total Revenue", col, float64(100+col))
	}

	records := extractPeriods(table, revenueFields)
	if len(records) != maxPeriods {
		t.Fatalf("expected %d records, got %d", maxPeriods, len(records))
	}
}

func TestExtractPeriodsEmptyTable(t *testing.T) {
	table := models.NewStatementTable(nil)
	if records := extractPeriods(table, revenueFields); records != nil {
		t.Fatalf("expected nil for empty table, got %v", records)
	}
}
