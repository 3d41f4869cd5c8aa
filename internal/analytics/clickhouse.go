package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseConfig holds ClickHouse connection configuration
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseEvents stores game events in ClickHouse for analytics queries.
type ClickHouseEvents struct {
	db clickhouse.Conn
}

// NewClickHouseEvents connects and verifies the connection.
func NewClickHouseEvents(ctx context.Context, config ClickHouseConfig) (*ClickHouseEvents, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Addr},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &ClickHouseEvents{db: conn}, nil
}

// CreateTables creates the analytics tables if they don't exist
func (ch *ClickHouseEvents) CreateTables(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS game_events (
		event_id String,
		event_type String,
		table_name String,
		conn_id String,
		seat String,
		trump String,
		score_ac Int64,
		score_bd Int64,
		tricks_ac Int64,
		tricks_bd Int64,
		timestamp DateTime64(3)
	) ENGINE = ReplacingMergeTree(timestamp)
	ORDER BY (table_name, event_id, timestamp)`

	if err := ch.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create game_events table: %w", err)
	}
	return nil
}

// Name identifies the sink in metrics.
func (ch *ClickHouseEvents) Name() string { return "clickhouse" }

// WriteEvent inserts one event.
func (ch *ClickHouseEvents) WriteEvent(ctx context.Context, ev GameEvent) error {
	batch, err := ch.db.PrepareBatch(ctx, "INSERT INTO game_events")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	err = batch.Append(
		ev.EventID,
		string(ev.EventType),
		ev.TableName,
		ev.ConnID,
		ev.Seat,
		ev.Trump,
		int64(ev.ScoreAC),
		int64(ev.ScoreBD),
		int64(ev.TricksAC),
		int64(ev.TricksBD),
		ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return batch.Send()
}

// Close closes the connection.
func (ch *ClickHouseEvents) Close() error {
	return ch.db.Close()
}
