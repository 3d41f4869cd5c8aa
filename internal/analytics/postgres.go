package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// SessionStore persists player sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *PlayerSession) error
	EndSession(ctx context.Context, sessionID string) error
	GetTableSessions(ctx context.Context, tableName string, limit int) ([]PlayerSession, error)
	Close() error
}

// PostgresSessions implements SessionStore on PostgreSQL via lib/pq.
type PostgresSessions struct {
	db *sql.DB
}

// NewPostgresSessions opens the database and verifies the connection.
func NewPostgresSessions(ctx context.Context, dsn string) (*PostgresSessions, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresSessions{db: db}, nil
}

// CreateTables creates the sessions table if it doesn't exist
func (s *PostgresSessions) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS player_sessions (
			session_id TEXT PRIMARY KEY,
			conn_id TEXT NOT NULL,
			table_name TEXT NOT NULL,
			seat TEXT,
			connected_at TIMESTAMPTZ NOT NULL,
			disconnected_at TIMESTAMPTZ
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create player_sessions table: %w", err)
	}
	return nil
}

// CreateSession records a connection joining a table.
func (s *PostgresSessions) CreateSession(ctx context.Context, session *PlayerSession) error {
	query := `
		INSERT INTO player_sessions (
			session_id, conn_id, table_name, seat, connected_at, disconnected_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.SessionID,
		session.ConnID,
		session.TableName,
		session.Seat,
		session.ConnectedAt,
		session.DisconnectedAt,
	)
	if err == nil {
		SessionsOpen.Inc()
	}
	return err
}

// EndSession stamps the disconnect time.
func (s *PostgresSessions) EndSession(ctx context.Context, sessionID string) error {
	query := `
		UPDATE player_sessions
		SET disconnected_at = $2
		WHERE session_id = $1 AND disconnected_at IS NULL
	`
	res, err := s.db.ExecContext(ctx, query, sessionID, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		SessionsOpen.Dec()
	}
	return nil
}

// GetTableSessions retrieves recent sessions for a table.
func (s *PostgresSessions) GetTableSessions(ctx context.Context, tableName string, limit int) ([]PlayerSession, error) {
	query := `
		SELECT session_id, conn_id, table_name, seat, connected_at, disconnected_at
		FROM player_sessions
		WHERE table_name = $1
		ORDER BY connected_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, tableName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []PlayerSession
	for rows.Next() {
		var session PlayerSession
		var seat sql.NullString
		var disconnectedAt sql.NullTime
		err := rows.Scan(
			&session.SessionID,
			&session.ConnID,
			&session.TableName,
			&seat,
			&session.ConnectedAt,
			&disconnectedAt,
		)
		if err != nil {
			return nil, err
		}
		if seat.Valid {
			session.Seat = seat.String
		}
		if disconnectedAt.Valid {
			session.DisconnectedAt = &disconnectedAt.Time
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Close closes the database handle.
func (s *PostgresSessions) Close() error {
	return s.db.Close()
}
