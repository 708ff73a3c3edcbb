// Package store provides the local trade cache. Fetched fills are kept in
// SQLite so reports can be rebuilt offline and incremental syncs only pull
// what is new since the last run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// TradeCache persists raw fills and per-segment sync watermarks.
type TradeCache struct {
	db *sql.DB
}

// NewTradeCache opens (and if necessary creates) the cache database.
func NewTradeCache(dbPath string) (*TradeCache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	cache := &TradeCache{db: db}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return cache, nil
}

func (c *TradeCache) initSchema() error {
	schema := `
	-- Raw fills as fetched from the venue. The metadata bag is kept as
	-- JSON so copy-trade classification survives a cache round trip.
	CREATE TABLE IF NOT EXISTS trades (
		segment TEXT NOT NULL,
		id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		price REAL NOT NULL,
		amount REAL NOT NULL,
		cost REAL NOT NULL,
		fee_cost REAL NOT NULL,
		fee_ccy TEXT NOT NULL,
		info TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (segment, id)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

	-- Per-segment sync watermarks (epoch milliseconds of the newest fill).
	CREATE TABLE IF NOT EXISTS sync_state (
		segment TEXT PRIMARY KEY,
		last_sync INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (c *TradeCache) Close() error {
	return c.db.Close()
}

// SaveTrades upserts fills into the cache. Re-fetching an overlapping
// window is safe: the (segment, id) key deduplicates.
func (c *TradeCache) SaveTrades(ctx context.Context, trades []models.RawTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO trades
		(segment, id, timestamp, symbol, side, price, amount, cost, fee_cost, fee_ccy, info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		var info []byte
		if t.Info != nil {
			if info, err = json.Marshal(t.Info); err != nil {
				info = nil
			}
		}
		if _, err := stmt.ExecContext(ctx,
			string(t.Segment), t.ID, t.Timestamp, t.Symbol, t.Side,
			t.Price, t.Amount, t.Cost, t.Fee.Cost, t.Fee.Currency, info,
		); err != nil {
			return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTrades returns all cached fills with a timestamp inside the window,
// oldest first.
func (c *TradeCache) GetTrades(ctx context.Context, sinceMillis, untilMillis int64) ([]models.RawTrade, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT segment, id, timestamp, symbol, side, price, amount, cost, fee_cost, fee_ccy, info
		FROM trades
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`, sinceMillis, untilMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.RawTrade
	for rows.Next() {
		var t models.RawTrade
		var segment string
		var info sql.NullString
		if err := rows.Scan(&segment, &t.ID, &t.Timestamp, &t.Symbol, &t.Side,
			&t.Price, &t.Amount, &t.Cost, &t.Fee.Cost, &t.Fee.Currency, &info); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Segment = models.Segment(segment)
		if info.Valid && info.String != "" {
			var bag map[string]any
			if err := json.Unmarshal([]byte(info.String), &bag); err == nil {
				t.Info = bag
			}
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// LastSync returns the sync watermark for a segment in epoch milliseconds,
// or 0 when the segment has never been synced.
func (c *TradeCache) LastSync(ctx context.Context, segment models.Segment) (int64, error) {
	var last int64
	err := c.db.QueryRowContext(ctx,
		`SELECT last_sync FROM sync_state WHERE segment = ?`, string(segment)).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sync state: %w", err)
	}
	return last, nil
}

// SetLastSync records the sync watermark for a segment.
func (c *TradeCache) SetLastSync(ctx context.Context, segment models.Segment, millis int64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sync_state (segment, last_sync, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(segment) DO UPDATE SET last_sync = excluded.last_sync, updated_at = CURRENT_TIMESTAMP`,
		string(segment), millis)
	if err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	return nil
}

// Count returns the number of cached fills.
func (c *TradeCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}
