package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSight/internal/domain/models"
	"FinSight/internal/domain/repository"
	pkgkafka "FinSight/pkg/kafka"
	applogger "FinSight/pkg/logger"

	"github.com/goccy/go-json"
)

// KafkaSnapshotPublisher implements Publisher for Kafka. Events are keyed
// by symbol so one symbol's history stays in partition order.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher creates a Kafka snapshot publisher.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, ev *models.SnapshotEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// ClickHouseSnapshotArchive implements Archive over ClickHouse. Snapshots
// are stored as JSON payloads alongside their sort keys.
type ClickHouseSnapshotArchive struct {
	db    *sql.DB
	table string
	log   *applogger.Logger
}

// NewClickHouseSnapshotArchive creates a ClickHouse snapshot archive.
func NewClickHouseSnapshotArchive(db *sql.DB, table string, log *applogger.Logger) repository.Archive {
	return &ClickHouseSnapshotArchive{db: db, table: table, log: log}
}

func (a *ClickHouseSnapshotArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        symbol LowCardinality(String),
        assembled_at DateTime,
        payload String
    ) ENGINE = MergeTree ORDER BY (symbol, assembled_at)`, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("archive schema: %w", err)
	}
	return nil
}

func (a *ClickHouseSnapshotArchive) StoreSnapshot(ctx context.Context, ev *models.SnapshotEvent) error {
	payload, err := json.Marshal(ev.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	assembledAt, err := time.Parse(time.RFC3339, ev.AssembledAt)
	if err != nil {
		assembledAt = time.Now()
	}

	q := fmt.Sprintf("INSERT INTO %s (symbol, assembled_at, payload) VALUES (?, ?, ?)", a.table)
	if _, err := a.db.ExecContext(ctx, q, ev.Symbol, assembledAt, string(payload)); err != nil {
		a.log.Error("snapshot archive insert error",
			applogger.String("symbol", ev.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (a *ClickHouseSnapshotArchive) RecentSnapshots(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.SnapshotEvent, error) {
	q := fmt.Sprintf(`SELECT symbol, assembled_at, payload
        FROM %s
        WHERE symbol = ? AND assembled_at >= ?
        ORDER BY assembled_at DESC
        LIMIT ?`, a.table)

	rows, err := a.db.QueryContext(ctx, q, symbol, since, limit)
	if err != nil {
		a.log.Error("snapshot archive query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("recent snapshots: %w", err)
	}
	defer rows.Close()

	events := make([]*models.SnapshotEvent, 0, limit)
	for rows.Next() {
		var (
			sym         string
			assembledAt time.Time
			payload     string
		)
		if err := rows.Scan(&sym, &assembledAt, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		var snapshot models.CompanySnapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			a.log.Warn("skipping undecodable archived snapshot",
				applogger.String("symbol", sym),
				applogger.Error(err),
			)
			continue
		}
		events = append(events, &models.SnapshotEvent{
			Symbol:      sym,
			AssembledAt: assembledAt.UTC().Format(time.RFC3339),
			Snapshot:    &snapshot,
		})
	}
	return events, rows.Err()
}

func (a *ClickHouseSnapshotArchive) Close() error {
	return nil // connection owned by pkg client
}
