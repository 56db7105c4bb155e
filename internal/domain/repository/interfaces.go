package repository

import (
	"context"
	"time"

	"FinSight/internal/domain/models"
)

// MarketData is the upstream financial-data capability. Implementations
// translate provider failures into fetch error kinds at the boundary; an
// empty table (not an error) means the provider had no data.
type MarketData interface {
	Info(ctx context.Context, symbol string) (models.InfoRecord, error)

	IncomeStatement(ctx context.Context, symbol string) (*models.StatementTable, error)
	BalanceSheet(ctx context.Context, symbol string) (*models.StatementTable, error)
	CashFlow(ctx context.Context, symbol string) (*models.StatementTable, error)
	TTMIncomeStatement(ctx context.Context, symbol string) (*models.StatementTable, error)
	TTMCashFlow(ctx context.Context, symbol string) (*models.StatementTable, error)

	QuarterlyFinancials(ctx context.Context, symbol string) (*models.StatementTable, error)
	QuarterlyCashFlow(ctx context.Context, symbol string) (*models.StatementTable, error)
	QuarterlyBalanceSheet(ctx context.Context, symbol string) (*models.StatementTable, error)

	EarningsHistory(ctx context.Context, symbol string) (models.KeyedTable, error)
	AnalystPriceTargets(ctx context.Context, symbol string) (models.InfoRecord, error)
	EarningsEstimate(ctx context.Context, symbol string) (models.KeyedTable, error)
	RevenueEstimate(ctx context.Context, symbol string) (models.KeyedTable, error)
	GrowthEstimates(ctx context.Context, symbol string) (models.KeyedTable, error)

	// History returns close prices for a period string ("1M","3M","6M","1Y").
	History(ctx context.Context, symbol, period string) (*models.PriceSeries, error)
}

// ChatModel is the external function-calling model capability. The caller
// owns per-credential pacing and retry; implementations classify provider
// failures (rate limit, timeout) into fetch error kinds.
type ChatModel interface {
	GenerateWithTools(ctx context.Context, apiKey string, history []models.Content,
		tools []models.ToolDeclaration, cfg models.GenerationConfig) (*models.ModelTurn, error)
}

// CacheEntryStat describes one cache entry's age for the stats endpoint.
type CacheEntryStat struct {
	Key              string  `json:"key"`
	AgeSeconds       float64 `json:"age_seconds"`
	ExpiresInSeconds float64 `json:"expires_in_seconds"`
	IsExpired        bool    `json:"is_expired"`
}

// CacheStats is the aggregate cache view.
type CacheStats struct {
	Size       int              `json:"cache_size"`
	MaxSize    int              `json:"cache_max_size"`
	TTLSeconds float64          `json:"cache_ttl_seconds"`
	Entries    []CacheEntryStat `json:"cache_items,omitempty"`
}

// Store is the fetch-result cache keyed by (symbol, operation).
type Store interface {
	Get(ctx context.Context, symbol, operation string) (any, bool)
	Put(ctx context.Context, symbol, operation string, value any)
	Clear(ctx context.Context) int
	Stats(ctx context.Context) CacheStats
}

// Publisher emits snapshot events after assembly.
type Publisher interface {
	PublishSnapshot(ctx context.Context, ev *models.SnapshotEvent) error
	Close() error
}

// Archive persists assembled snapshots and serves recent history.
type Archive interface {
	Init(ctx context.Context) error
	StoreSnapshot(ctx context.Context, ev *models.SnapshotEvent) error
	RecentSnapshots(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.SnapshotEvent, error)
	Close() error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordUpstreamCall(operation, outcome string)
	RecordCache(event string)
	RecordLLMTurn(outcome string)
	RecordToolExecution(tool, outcome string)
	RecordLatency(op string, seconds float64)
}
