package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"grid_trader/internal/core"
	apperrors "grid_trader/pkg/errors"
)

// SQLiteStore persists the latest snapshot per session in a single-row-per-
// session table, checksummed so a torn write is detected on load.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS strategy_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		session_id TEXT NOT NULL,
		data TEXT NOT NULL,
		checksum BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, state *core.StrategyState) error {
	// Start transaction with serializable isolation
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Validate JSON (round-trip test)
	var testState core.StrategyState
	if err := json.Unmarshal(data, &testState); err != nil {
		return fmt.Errorf("state validation failed: %w", err)
	}

	// Save with checksum
	checksum := sha256.Sum256(data)
	query := `INSERT OR REPLACE INTO strategy_state (id, session_id, data, checksum, updated_at) VALUES (1, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query, state.SessionID, string(data), checksum[:], time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write state to db: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadState(ctx context.Context) (*core.StrategyState, error) {
	query := `SELECT data, checksum FROM strategy_state WHERE id = 1`
	var data string
	var storedChecksum []byte
	err := s.db.QueryRowContext(ctx, query).Scan(&data, &storedChecksum)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state from db: %w", err)
	}

	computedChecksum := sha256.Sum256([]byte(data))
	if !bytes.Equal(storedChecksum, computedChecksum[:]) {
		return nil, fmt.Errorf("%w: checksum verification failed", apperrors.ErrStateCorrupted)
	}

	var state core.StrategyState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStateCorrupted, err)
	}

	return &state, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
